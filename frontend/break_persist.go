package frontend

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fansqz/gdb-frontend/constants"
)

// breakRecord 断点的持久化形式，type是单字母类型编码
// enabled和run_apply用指针区分"没写"和"写了false"：
// 老文件里缺失时enabled默认真，run_apply默认跟着断点类型走
type breakRecord struct {
	Line      int    `yaml:"line,omitempty"`
	Type      string `yaml:"type"`
	Enabled   *bool  `yaml:"enabled,omitempty"`
	Pending   bool   `yaml:"pending,omitempty"`
	RunApply  *bool  `yaml:"run_apply,omitempty"`
	Temporary *bool  `yaml:"temporary,omitempty"`
	File      string `yaml:"file,omitempty"`
	Display   string `yaml:"display,omitempty"`
	Func      string `yaml:"func,omitempty"`
	Ignore    string `yaml:"ignore,omitempty"`
	Cond      string `yaml:"cond,omitempty"`
	Script    string `yaml:"script,omitempty"`
	Location  string `yaml:"location,omitempty"`
}

type breakFile struct {
	Breakpoints []breakRecord `yaml:"breakpoints"`
}

// Save 把断点表写到path，标记为丢弃的行不落盘
func (e *BreakEngine) Save(path string) error {
	var file breakFile

	for _, row := range e.store.Rows() {
		if row.Discard {
			continue
		}

		enabled := row.Enabled
		runApply := row.RunApply
		record := breakRecord{
			Line:     row.Line,
			Type:     string(row.Kind.Code()),
			Enabled:  &enabled,
			Pending:  row.Pending,
			RunApply: &runApply,
			File:     row.File,
			Display:  row.Display,
			Func:     row.Func,
			Ignore:   row.Ignore,
			Cond:     row.Cond,
			Script:   row.Script,
			Location: row.Location,
		}
		// 观察点的临时标志是会话产物，只有borts的才是用户属性
		if row.Kind.IsBreakOrTrace() {
			temporary := row.Temporary
			record.Temporary = &temporary
		}
		file.Breakpoints = append(file.Breakpoints, record)
	}

	out, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// Load 从path重建断点表，文件不存在不算错误
// 类型认不出、没有定位串或者行号为负的记录直接跳过
func (e *BreakEngine) Load(path string) error {
	e.DeleteAll()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var file breakFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	for _, record := range file.Breakpoints {
		if len(record.Type) != 1 {
			continue
		}
		kind, ok := constants.KindFromCode(record.Type[0])
		if !ok || !kind.IsKnown() {
			continue
		}
		if record.Location == "" || record.Line < 0 {
			continue
		}

		line := record.Line
		if record.File == "" {
			line = 0
		}

		row := &Breakpoint{
			Scid:     e.store.NextScid(),
			Kind:     kind,
			Enabled:  true,
			Pending:  record.Pending,
			RunApply: kind.IsBreakOrTrace(),
			Location: record.Location,
			Display:  record.Display,
			File:     record.File,
			Line:     line,
			Func:     record.Func,
			Ignore:   record.Ignore,
			Cond:     record.Cond,
			Script:   record.Script,
		}
		if record.Enabled != nil {
			row.Enabled = *record.Enabled
		}
		if record.RunApply != nil {
			row.RunApply = *record.RunApply
		}
		if record.Temporary != nil && kind.IsBreakOrTrace() {
			row.Temporary = *record.Temporary
		}

		e.store.Put(row)
		e.mark(row, true)
	}

	e.c.Views.Dirty(constants.ViewBreaks)
	return nil
}
