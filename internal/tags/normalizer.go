package tags

import (
	"context"
	"sort"
	"strings"

	tagsRepo "github.com/anoixa/photo-gallery/database/repo/tags"

	"github.com/anoixa/photo-gallery/database/models"
)

// Normalizer 标签规范化器。
// 负责把用户输入的原始标签名收敛为规范小写形式并去重，
// 再对元数据库做"查缺-批量创建-冲突重查"的 find-or-create。
type Normalizer struct {
	repo *tagsRepo.Repository
}

// NewNormalizer 创建标签规范化器
func NewNormalizer(repo *tagsRepo.Repository) *Normalizer {
	return &Normalizer{repo: repo}
}

// NormalizeNames 规范化标签名：去首尾空白、丢弃空串、统一小写、去重。
// 返回结果按字典序排序，保证后续批量操作的顺序确定。
func NormalizeNames(rawNames []string) []string {
	seen := make(map[string]struct{}, len(rawNames))
	names := make([]string, 0, len(rawNames))

	for _, raw := range rawNames {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// Resolve 把原始标签名解析为标签行，不存在的标签按需创建。
// 并发上传同名新标签时，唯一约束仲裁冲突：乐观创建被忽略后重查，
// 冲突从不作为错误返回给调用方。
func (n *Normalizer) Resolve(ctx context.Context, rawNames []string) ([]*models.Tag, error) {
	names := NormalizeNames(rawNames)
	if len(names) == 0 {
		return []*models.Tag{}, nil
	}

	existing, err := n.repo.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	if len(existing) < len(names) {
		missing := missingNames(names, existing)
		if err := n.repo.CreateIgnoreConflicts(ctx, missing); err != nil {
			return nil, err
		}

		// 冲突被忽略的行在这里一并取回
		existing, err = n.repo.FindByNames(ctx, names)
		if err != nil {
			return nil, err
		}
	}

	return existing, nil
}

// missingNames 求尚未入库的标签名
func missingNames(names []string, existing []*models.Tag) []string {
	have := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		have[tag.Name] = struct{}{}
	}

	missing := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
