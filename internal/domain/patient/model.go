package patient

import (
	"errors"
	"strings"
	"time"

	"github.com/clinic/scheduler/pkg/optional"
)

var (
	ErrNotFound     = errors.New("patient not found")
	ErrNameRequired = errors.New("patient first and last name are required")
)

// Patient maps to the patients table.
type Patient struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPatient is the create payload.
type NewPatient struct {
	FullName  *string `json:"full_name"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
}

// Update carries only the keys the client sent.
type Update struct {
	FullName  optional.Field[string] `json:"full_name"`
	FirstName optional.Field[string] `json:"first_name"`
	LastName  optional.Field[string] `json:"last_name"`
	Email     optional.Field[string] `json:"email"`
	Phone     optional.Field[string] `json:"phone"`
}

func (u Update) touchesName() bool {
	return u.FullName.Set || u.FirstName.Set || u.LastName.Set
}

// BuildFullName derives the display name. A non-blank full name wins;
// otherwise the trimmed first and last names are joined. ok is false when
// nothing usable remains.
func BuildFullName(full, first, last *string) (name string, ok bool) {
	if full != nil {
		if s := strings.TrimSpace(*full); s != "" {
			return s, true
		}
	}

	var parts []string
	for _, p := range []*string{first, last} {
		if p == nil {
			continue
		}
		if s := strings.TrimSpace(*p); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
