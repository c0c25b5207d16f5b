package acl

import "errors"

var (
	ErrDuplicateRole       = errors.New("acl: role already exists")
	ErrDuplicatePermission = errors.New("acl: permission already exists")
	ErrRoleNotFound        = errors.New("acl: role not found")
	ErrEmptyCode           = errors.New("acl: empty code")
)
