package initialize

import (
	"context"
	"testlab/config"
	"testlab/internal/database"
	"testlab/internal/logger"
	. "testlab/internal/models"
	"testlab/internal/repositories"
)

const SystemPrincipal = "system"

// InitializeTables grants the admin role to the configured principals. It
// never demotes anyone and is safe to run on every start.
func InitializeTables(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	ctx := context.Background()
	users := repositories.NewUser(db)

	for _, principal := range config.AdminPrincipals() {
		role, found, err := users.GetRole(ctx, principal)
		if err != nil {
			return log.Err("failed to read role", err, "principal", principal)
		}
		if found && role == RoleAdmin {
			continue
		}

		if err := users.SetRole(ctx, principal, RoleAdmin, SystemPrincipal); err != nil {
			return log.Err("failed to bootstrap admin", err, "principal", principal)
		}
		log.Info("Bootstrapped admin", "principal", principal)
	}

	log.Info("Table initialization complete")
	return nil
}
