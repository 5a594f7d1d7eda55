package role

import (
	"strings"

	"github.com/pkg/errors"
)

type Role string

const (
	Admin    Role = "Admin"
	Manager  Role = "Manager"
	Employee Role = "Employee"
)

type Privilege struct {
	Module  string   `json:"module" bson:"module"`
	Actions []string `json:"actions" bson:"actions"`
}

var allActions = []string{"create", "view", "update", "delete"}

var modules = []string{"company", "employee", "project", "document", "invoice", "chat"}

// All lists the known roles from most to least privileged.
func All() []Role {
	return []Role{Admin, Manager, Employee}
}

// Parse accepts any casing of a known role.
func Parse(s string) (Role, error) {
	for _, r := range All() {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, nil
		}
	}
	return "", errors.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := Parse(string(r))
	return err == nil
}

/*
* Admin gets every action on every module
* Manager cannot touch the company record or delete invoices
* Employee can only view, and write chat messages and documents
 */
func (r Role) Privileges() []Privilege {
	var out []Privilege
	for _, m := range modules {
		var actions []string
		switch r {
		case Admin:
			actions = allActions
		case Manager:
			switch m {
			case "company":
				actions = []string{"view"}
			case "invoice":
				actions = []string{"create", "view", "update"}
			default:
				actions = allActions
			}
		case Employee:
			switch m {
			case "chat", "document":
				actions = []string{"create", "view"}
			default:
				actions = []string{"view"}
			}
		}
		if len(actions) > 0 {
			out = append(out, Privilege{Module: m, Actions: actions})
		}
	}
	return out
}
