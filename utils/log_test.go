package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLogMessage(t *testing.T) {
	// 控制字符被剥离，换行和制表符保留
	assert.Equal(t, "line\nnext\tcol", SanitizeLogMessage("line\nnext\tcol"))
	assert.Equal(t, "cleaned", SanitizeLogMessage("clea\x00\x1bned"))
	assert.Equal(t, "injected INFO fake", SanitizeLogMessage("injected\r INFO fake"))
}

func TestSanitizeLogUsername_Truncates(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := SanitizeLogUsername(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)

	assert.Equal(t, "alice", SanitizeLogUsername("alice"))
}
