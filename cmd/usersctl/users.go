package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/saylorsolutions/cmdbind/cli"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrLastAdmin    = errors.New("can't remove the last admin")
)

// Users is an in-memory user store.
// State only lasts as long as the process, so it's most useful in interactive mode.
type Users struct {
	admins map[string]bool
}

func NewUsers() *Users {
	return &Users{admins: map[string]bool{}}
}

func (u *Users) Annotations() map[string]string {
	return map[string]string{
		"CreateUser": `command:"" aliases:"cu,add" short:"Creates a user" params:"name,admin=false" param.admin:"shorthand=a,aliases=superuser"`,
		"DeleteUser": `command:"delete-user" aliases:"rm" short:"Deletes a user" params:"name,force=false" param.force:"shorthand=f"`,
		"ListUsers": `command:"list" aliases:"ls" short:"Lists users" long:"Prints each user on its own line, with admins marked by a trailing '*'." ` +
			`params:"out,admins=false"`,
		"GrantAdmin": `command:"" short:"Makes admins of existing users" params:"names"`,
		"Expire":     `command:"" short:"Deletes a user after a delay" params:"ctx,logger,name,after=10s"`,
	}
}

func (u *Users) CreateUser(name string, admin bool) error {
	if _, ok := u.admins[name]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, name)
	}
	u.admins[name] = admin
	return nil
}

// DeleteUser removes a user, refusing to remove the last admin unless forced.
func (u *Users) DeleteUser(name string, force bool) error {
	admin, ok := u.admins[name]
	if !ok {
		return cli.WithExitCode(3, fmt.Errorf("%w: %s", ErrUserNotFound, name))
	}
	if admin && !force && u.adminCount() == 1 {
		return ErrLastAdmin
	}
	delete(u.admins, name)
	return nil
}

func (u *Users) ListUsers(out *cli.Printer, admins bool) int {
	names := u.names()
	for _, name := range names {
		switch {
		case u.admins[name]:
			out.Println(name + "*")
		case !admins:
			out.Println(name)
		}
	}
	return cli.ExitOK
}

// GrantAdmin grants admin to every named user, stopping at the first that doesn't exist.
func (u *Users) GrantAdmin(names ...string) error {
	for _, name := range names {
		if _, ok := u.admins[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, name)
		}
		u.admins[name] = true
	}
	return nil
}

func (u *Users) Expire(ctx context.Context, logger *slog.Logger, name string, after time.Duration) error {
	if _, ok := u.admins[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, name)
	}
	logger.Info("Waiting to expire user", "user", name, "after", after)
	timer := time.NewTimer(after)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	delete(u.admins, name)
	return nil
}

// Names isn't annotated, so it's not a command.
func (u *Users) Names() []string {
	return u.names()
}

func (u *Users) names() []string {
	return slices.Sorted(maps.Keys(u.admins))
}

func (u *Users) adminCount() int {
	var count int
	for _, admin := range u.admins {
		if admin {
			count++
		}
	}
	return count
}
