// Command issue-dev-token mints an access token signed with the configured
// jwt key, for local testing without the external auth service.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/poradna-dev/poradna/shared/config"
	"github.com/poradna-dev/poradna/shared/domain"
	"github.com/poradna-dev/poradna/shared/jwt"
)

func main() {
	var (
		configFolder string
		uid          string
		email        string
		name         string
		admin        bool
		ttl          time.Duration
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&uid, "uid", "dev-user", "user id")
	flag.StringVar(&email, "email", "dev@localhost", "user email")
	flag.StringVar(&name, "name", "", "display name")
	flag.BoolVar(&admin, "admin", false, "issue an admin token")
	flag.DurationVar(&ttl, "ttl", 0, "token lifetime, defaults to jwt_ttl from config")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	if ttl == 0 {
		ttl = cfg.JwtTTL()
	}

	role := domain.RoleUser
	if admin {
		role = domain.RoleAdmin
	}

	token, err := jwt.New(cfg.JwtKey(), ttl).NewToken(domain.User{
		Id:          uid,
		Email:       email,
		DisplayName: name,
		Role:        role,
	})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Println(token)
	fmt.Println()
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/v1/questions\n", token)
}
