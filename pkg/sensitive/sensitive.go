package sensitive

import (
	"fmt"

	"github.com/importcjj/sensitive"
)

// DefaultMask 默认替换字符
const DefaultMask = '*'

// Word 敏感词过滤器，用于文章标题
type Word struct {
	Filter *sensitive.Filter
	mask   rune
}

// NewWord 从词库文件加载，每行一个词
func NewWord(dictPath string, mask rune) (*Word, error) {
	filter := sensitive.New()
	if err := filter.LoadWordDict(dictPath); err != nil {
		return nil, fmt.Errorf("加载敏感词库失败 %s: %w", dictPath, err)
	}
	return newWord(filter, mask), nil
}

// NewWordFromList 直接使用给定词表
func NewWordFromList(mask rune, words ...string) *Word {
	filter := sensitive.New()
	filter.AddWord(words...)
	return newWord(filter, mask)
}

func newWord(filter *sensitive.Filter, mask rune) *Word {
	if mask == 0 {
		mask = DefaultMask
	}
	return &Word{Filter: filter, mask: mask}
}

// Validate 返回是否通过以及命中的第一个敏感词
func (w *Word) Validate(content string) (bool, string) {
	return w.Filter.Validate(content)
}

// Mask 用替换字符遮盖全部敏感词
func (w *Word) Mask(content string) string {
	return w.Filter.Replace(content, w.mask)
}
