package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey 判断是否违反唯一约束。
// 数据库连接开启了 TranslateError，正常情况下会得到 gorm.ErrDuplicatedKey；
// 未经翻译的驱动错误按 SQLSTATE 23505 / SQLite UNIQUE 文本兜底识别。
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
