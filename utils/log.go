package utils

import (
	"strings"
	"unicode"
)

// 日志里用户名最多保留的字节数
const maxLoggedNameLen = 50

// SanitizeLogMessage 过滤控制字符，防止用户输入伪造日志行。
// 保留换行和制表符。
func SanitizeLogMessage(msg string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, msg)
}

// SanitizeLogUsername 截断过长的用户名后再过滤
func SanitizeLogUsername(username string) string {
	if len(username) > maxLoggedNameLen {
		username = username[:maxLoggedNameLen] + "..."
	}
	return SanitizeLogMessage(username)
}
