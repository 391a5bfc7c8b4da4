package main

import (
	"fmt"
	"testlab/internal/apperr"
	. "testlab/internal/models"
	"time"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Profiles and roles",
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the caller's profile and role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		profile, err := r.query.CallerProfile(ctx)
		if err != nil {
			return err
		}
		role, err := r.query.CallerRole(ctx)
		if err != nil {
			return err
		}
		isAdmin, err := r.query.IsAdmin(ctx)
		if err != nil {
			return err
		}

		name := "-"
		if p, ok := profile.Get(); ok {
			name = p.Name
		}

		w := newTable()
		fmt.Fprintf(w, "Name:\t%s\n", name)
		fmt.Fprintf(w, "Role:\t%s\n", role)
		fmt.Fprintf(w, "Admin:\t%t\n", isAdmin)
		return w.Flush()
	},
}

var setNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Save the caller's display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		request := SaveProfileRequest{Name: args[0]}
		if _, err := r.query.SaveCallerProfile(cmd.Context(), request).Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Profile saved")
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <principal>",
	Short: "Show another user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		profile, err := r.query.UserProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, ok := profile.Get()
		if !ok {
			return apperr.NotFound("profile not found")
		}
		fmt.Println(p.Name)
		return nil
	},
}

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Show the caller's role",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		role, err := r.query.CallerRole(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(role)
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <principal> <admin|user|guest>",
	Short: "Assign a role (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := ParseRole(args[1])
		if !ok {
			return apperr.ValidationField("role", "role must be one of admin user guest")
		}

		r, err := connect()
		if err != nil {
			return err
		}

		if _, err := r.query.AssignRole(cmd.Context(), args[0], role).Wait(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", args[0], role)
		return nil
	},
}

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List every assigned role (admin only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := connect()
		if err != nil {
			return err
		}

		roles, err := r.http.ListRoles(cmd.Context())
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "PRINCIPAL\tROLE\tASSIGNED BY\tUPDATED")
		for _, userRole := range roles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				userRole.Principal, userRole.Role, userRole.AssignedBy, userRole.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

func init() {
	usersCmd.AddCommand(whoamiCmd)
	usersCmd.AddCommand(setNameCmd)
	usersCmd.AddCommand(profileCmd)
	usersCmd.AddCommand(roleCmd)
	usersCmd.AddCommand(assignCmd)
	usersCmd.AddCommand(rolesCmd)
}
