package repo

import (
	"strings"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
)

// selectBuilder accumulates WHERE fragments and their arguments and compiles
// them into one statement. Values are always bound, never interpolated.
// Fragments use `?` placeholders; callers Rebind for the driver.
type selectBuilder struct {
	base  string
	where []string
	args  []any
	order string
}

func newSelect(base string) *selectBuilder {
	return &selectBuilder{base: base}
}

func (b *selectBuilder) and(pred string, args ...any) *selectBuilder {
	b.where = append(b.where, pred)
	b.args = append(b.args, args...)
	return b
}

func (b *selectBuilder) orderBy(order string) *selectBuilder {
	b.order = order
	return b
}

func (b *selectBuilder) build() (string, []any) {
	var sb strings.Builder
	sb.WriteString(b.base)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if b.order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.order)
	}
	return sb.String(), b.args
}

// taskListQuery compiles the owner-scoped listing for f.
func taskListQuery(ownerID string, f entity.Filter) (string, []any) {
	b := newSelect(`SELECT ` + taskColumns + ` FROM tasks`).
		and(`owner_id = ?`, ownerID)
	if f.Status != nil {
		b.and(`status = ?`, string(*f.Status))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		b.and(`(LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`, pattern, pattern)
	}
	return b.orderBy(`created_at, id`).build()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
