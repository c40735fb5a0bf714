package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/validation"
	"github.com/spf13/pflag"
)

func rootCommand(a *app) *Command {
	return &Command{
		Name:    "blogctl",
		Summary: "Read, write and administer the blog from the terminal.",
		Subcommands: []*Command{
			loginCommand(a),
			logoutCommand(a),
			registerCommand(a),
			whoamiCommand(a),
			profileCommand(a),
			postsCommand(a),
			usersCommand(a),
		},
	}
}

func flagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func outputFlag(fs *pflag.FlagSet, format *string) {
	fs.StringVarP(format, "output", "o", formatTable, "output format: table, json or yaml")
}

// passwordFlag binds --password, falling back to BLOG_PASSWORD so the
// secret can stay out of shell history.
func passwordFlag(fs *pflag.FlagSet, password *string) {
	fs.StringVar(password, "password", os.Getenv("BLOG_PASSWORD"), "password (default $BLOG_PASSWORD)")
}

func loginCommand(a *app) *Command {
	var username, password, format string
	return &Command{
		Name:    "login",
		Summary: "Sign in and keep the session for later commands",
		Usage:   "blogctl login --username NAME [--password PASS]",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("login")
			fs.StringVarP(&username, "username", "u", "", "account username")
			passwordFlag(fs, &password)
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			identity, err := c.Auth.Login(a.ctx, username, password)
			if err != nil {
				return err
			}
			if format == formatTable {
				a.success("Signed in as %s", identity.Name())
				return nil
			}
			return render(a.stdout, format, identity, nil)
		},
	}
}

func logoutCommand(a *app) *Command {
	return &Command{
		Name:    "logout",
		Summary: "End the session",
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			if err := c.Auth.Logout(a.ctx); err != nil {
				fmt.Fprintln(a.stderr, errorBanner(err))
			}
			a.success("Signed out")
			return nil
		},
	}
}

func registerCommand(a *app) *Command {
	var req models.RegisterRequest
	return &Command{
		Name:    "register",
		Summary: "Create an account and sign in with it",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("register")
			fs.StringVarP(&req.Username, "username", "u", "", "username, without spaces")
			fs.StringVar(&req.DisplayName, "display-name", "", "name shown on posts")
			passwordFlag(fs, &req.Password)
			fs.StringVar(&req.ConfirmPassword, "confirm", "", "password again (defaults to --password)")
			return fs
		},
		Run: func(args []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			result, err := c.Auth.Register(a.ctx, req)
			if err != nil {
				return err
			}
			if !result.LoggedIn {
				fmt.Fprintln(a.stderr, warningStyle.Render("Account created, but signing in failed. Run 'blogctl login'."))
				return nil
			}
			a.success("Welcome, %s", result.Identity.Name())
			return nil
		},
	}
}

func whoamiCommand(a *app) *Command {
	var format string
	return &Command{
		Name:    "whoami",
		Summary: "Confirm the session with the backend and show the identity",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("whoami")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			identity, err := c.Auth.WhoAmI(a.ctx)
			if err != nil {
				return err
			}
			return render(a.stdout, format, identity, identityTable(identity))
		},
	}
}

func profileCommand(a *app) *Command {
	var update models.ProfileUpdate
	return &Command{
		Name:    "profile",
		Summary: "Change your username, display name or password",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("profile")
			fs.StringVarP(&update.Username, "username", "u", "", "new username (default: unchanged)")
			fs.StringVar(&update.DisplayName, "display-name", "", "new display name (default: unchanged)")
			fs.StringVar(&update.Password, "password", "", "new password (default: unchanged)")
			fs.StringVar(&update.ConfirmPassword, "confirm", "", "new password again (defaults to --password)")
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			current := c.Identity.Current()
			if current == nil {
				return models.NewUnauthenticatedError("Sign in first with 'blogctl login'.")
			}
			if update.Username == "" {
				update.Username = current.UserName
			}
			if update.DisplayName == "" {
				update.DisplayName = current.DisplayName
			}
			if update.ConfirmPassword == "" {
				update.ConfirmPassword = update.Password
			}
			identity, err := c.Auth.EditProfile(a.ctx, update)
			if err != nil {
				return err
			}
			a.success("Profile updated for %s", identity.Name())
			return nil
		},
	}
}

func postsCommand(a *app) *Command {
	return &Command{
		Name:    "posts",
		Summary: "List, read and write posts",
		Subcommands: []*Command{
			postsListCommand(a),
			postsShowCommand(a),
			postsCreateCommand(a),
			postsEditCommand(a),
			postsDeleteCommand(a),
		},
	}
}

func postsListCommand(a *app) *Command {
	var format string
	return &Command{
		Name:    "list",
		Summary: "List post previews",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("list")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			posts, err := c.Posts.List(a.ctx)
			if err != nil {
				return err
			}
			return render(a.stdout, format, posts, postsTable(posts))
		},
	}
}

func postsShowCommand(a *app) *Command {
	var format string
	return &Command{
		Name:    "show",
		Summary: "Show one post",
		Usage:   "blogctl posts show <id>",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("show")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl posts show <id>"); err != nil {
				return err
			}
			id, err := models.ParsePostID(args[0])
			if err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			view, err := c.Posts.View(a.ctx, id, c.Identity.Current())
			if err != nil {
				return err
			}
			return render(a.stdout, format, view.Post, func(tw *tabwriter.Writer) {
				p := view.Post
				fmt.Fprintf(tw, "%s\n", p.Title)
				fmt.Fprintf(tw, "%s\n", dimStyle.Render(fmt.Sprintf("by %s, created %s, modified %s", p.Author, p.CreatedDate.Display(), p.LastModifiedDate.Display())))
				fmt.Fprintf(tw, "\n%s\n", p.Content)
				if view.CanEdit {
					fmt.Fprintf(tw, "\n%s\n", dimStyle.Render(fmt.Sprintf("edit: blogctl posts edit %d  delete: blogctl posts delete %d", p.ID, p.ID)))
				}
			})
		},
	}
}

func postsCreateCommand(a *app) *Command {
	var title, content, format string
	return &Command{
		Name:    "create",
		Summary: "Write a new post",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("create")
			fs.StringVarP(&title, "title", "t", "", "post title")
			fs.StringVarP(&content, "content", "c", "", "post body; '-' reads standard input")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			body, err := readContent(content)
			if err != nil {
				return err
			}
			if err := validation.ValidatePostForm(title, body); err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			me := c.Identity.Current()
			if me == nil {
				return models.NewUnauthenticatedError("Sign in first with 'blogctl login'.")
			}
			post, err := c.Mutations.Create(a.ctx, models.NewPost{Title: title, Content: body, Author: me.ID})
			if err != nil {
				return mutationFailed(c.Mutations, err)
			}
			if format == formatTable {
				a.success("Created post %d", post.ID)
				return nil
			}
			return render(a.stdout, format, post, nil)
		},
	}
}

func postsEditCommand(a *app) *Command {
	var title, content string
	return &Command{
		Name:    "edit",
		Summary: "Replace the title or content of a post",
		Usage:   "blogctl posts edit <id> [--title T] [--content C]",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("edit")
			fs.StringVarP(&title, "title", "t", "", "new title (default: unchanged)")
			fs.StringVarP(&content, "content", "c", "", "new body; '-' reads standard input (default: unchanged)")
			return fs
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl posts edit <id>"); err != nil {
				return err
			}
			id, err := models.ParsePostID(args[0])
			if err != nil {
				return err
			}
			body, err := readContent(content)
			if err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			view, err := c.Posts.View(a.ctx, id, c.Identity.Current())
			if err != nil {
				return err
			}
			if !view.CanEdit {
				return models.NewForbiddenError(0, "You can only edit your own posts")
			}
			if title == "" {
				title = view.Post.Title
			}
			if body == "" {
				body = view.Post.Content
			}
			if err := validation.ValidatePostForm(title, body); err != nil {
				return err
			}
			updated, err := c.Mutations.Update(a.ctx, view.Post.WithEdits(title, body))
			if err != nil {
				return mutationFailed(c.Mutations, err)
			}
			a.success("Updated post %d", updated.ID)
			return nil
		},
	}
}

func postsDeleteCommand(a *app) *Command {
	return &Command{
		Name:    "delete",
		Summary: "Delete a post",
		Usage:   "blogctl posts delete <id>",
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl posts delete <id>"); err != nil {
				return err
			}
			id, err := models.ParsePostID(args[0])
			if err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			view, err := c.Posts.View(a.ctx, id, c.Identity.Current())
			if err != nil {
				return err
			}
			if !view.CanEdit {
				return models.NewForbiddenError(0, "You can only delete your own posts")
			}
			if err := c.Mutations.Delete(a.ctx, id); err != nil {
				return mutationFailed(c.Mutations, err)
			}
			a.success("Deleted post %d", id)
			return nil
		},
	}
}

// readContent returns raw, or standard input when raw is "-".
func readContent(raw string) (string, error) {
	if raw != "-" {
		return raw, nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading post body: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func usersCommand(a *app) *Command {
	return &Command{
		Name:    "users",
		Summary: "Look up users and, as an admin, manage accounts",
		Subcommands: []*Command{
			usersInfoCommand(a),
			usersListCommand(a),
			usersCreateCommand(a),
			usersUpdateCommand(a),
			usersRoleCommand(a),
			usersDeleteCommand(a),
		},
	}
}

func usersInfoCommand(a *app) *Command {
	var format string
	return &Command{
		Name:    "info",
		Summary: "Show the public record of a user",
		Usage:   "blogctl users info <id>",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("info")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl users info <id>"); err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			info, err := c.Auth.UserInfo(a.ctx, args[0])
			if err != nil {
				return err
			}
			return render(a.stdout, format, info, func(tw *tabwriter.Writer) {
				fmt.Fprintf(tw, "ID\t%s\nUsername\t%s\nDisplay name\t%s\n", info.ID, info.UserName, info.DisplayName)
			})
		},
	}
}

func usersListCommand(a *app) *Command {
	var format string
	return &Command{
		Name:    "list",
		Summary: "List all accounts (admin)",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("list")
			outputFlag(fs, &format)
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			users, err := c.Users.ListUsers(a.ctx)
			if err != nil {
				return err
			}
			return render(a.stdout, format, users, usersTable(users))
		},
	}
}

func usersCreateCommand(a *app) *Command {
	var in models.CreateUserInput
	return &Command{
		Name:    "create",
		Summary: "Create an account (admin)",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("create")
			fs.StringVarP(&in.Username, "username", "u", "", "username")
			fs.StringVar(&in.DisplayName, "display-name", "", "display name")
			passwordFlag(fs, &in.Password)
			fs.BoolVar(&in.IsAdmin, "admin", false, "give the account the Admin role")
			return fs
		},
		Run: func(args []string) error {
			c, err := a.open()
			if err != nil {
				return err
			}
			created, err := c.Users.CreateUser(a.ctx, in)
			if created != nil {
				a.success("Created %s (%s) with role %s", created.Username, created.ID, created.Role)
			}
			return err
		},
	}
}

func usersUpdateCommand(a *app) *Command {
	var username, displayName, role string
	return &Command{
		Name:    "update",
		Summary: "Rename an account and optionally change its role (admin)",
		Usage:   "blogctl users update <id> [--username U] [--display-name D] [--role R]",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("update")
			fs.StringVarP(&username, "username", "u", "", "new username (default: unchanged)")
			fs.StringVar(&displayName, "display-name", "", "new display name (default: unchanged)")
			fs.StringVar(&role, "role", "", "new role, User or Admin (default: unchanged)")
			return fs
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl users update <id>"); err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			users, err := c.Users.ListUsers(a.ctx)
			if err != nil {
				return err
			}
			before, ok := findAccount(users, args[0])
			if !ok {
				return models.NewNotFoundError("user", args[0])
			}
			edited := before
			if username != "" {
				edited.Username = username
			}
			if displayName != "" {
				edited.DisplayName = displayName
			}
			edited.Role = role
			if err := c.Users.SaveUser(a.ctx, before, edited); err != nil {
				return err
			}
			a.success("Updated %s", edited.Username)
			return nil
		},
	}
}

func findAccount(users []models.UserAccount, id string) (models.UserAccount, bool) {
	for _, u := range users {
		if u.ID == id {
			return u, true
		}
	}
	return models.UserAccount{}, false
}

func usersRoleCommand(a *app) *Command {
	return &Command{
		Name:    "role",
		Summary: "Set the role of an account (admin)",
		Usage:   "blogctl users role <id> <User|Admin>",
		Run: func(args []string) error {
			if err := requireArgs(args, 2, "blogctl users role <id> <User|Admin>"); err != nil {
				return err
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			if err := c.Users.SetUserRole(a.ctx, args[0], args[1]); err != nil {
				return err
			}
			a.success("Role of %s set to %s", args[0], args[1])
			return nil
		},
	}
}

func usersDeleteCommand(a *app) *Command {
	var yes bool
	return &Command{
		Name:    "delete",
		Summary: "Delete an account and its posts (admin)",
		Usage:   "blogctl users delete <id> --yes",
		Flags: func() *pflag.FlagSet {
			fs := flagSet("delete")
			fs.BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
			return fs
		},
		Run: func(args []string) error {
			if err := requireArgs(args, 1, "blogctl users delete <id> --yes"); err != nil {
				return err
			}
			if !yes {
				return errors.New("refusing to delete without --yes")
			}
			c, err := a.open()
			if err != nil {
				return err
			}
			if err := c.Users.DeleteUser(a.ctx, args[0]); err != nil {
				return err
			}
			a.success("Deleted %s", args[0])
			return nil
		},
	}
}
