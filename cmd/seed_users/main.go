// seed_users da de alta colaboradores a partir de un CSV.
//
// Uso: go run ./cmd/seed_users [usuarios.csv]
// Columnas: email,username,cargo[,password]. La primera fila es cabecera.
// Sin password se genera una y se imprime; sin email se usa username@PORTAL_EMAIL_DOMAIN.
// Requiere SUPABASE_URL, SUPABASE_ANON_KEY y SUPABASE_SERVICE_ROLE_KEY.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/portal-interno/internal/application/dto"
	"github.com/jhoicas/portal-interno/internal/application/usecase"
	"github.com/jhoicas/portal-interno/internal/domain"
	"github.com/jhoicas/portal-interno/internal/infrastructure/supabase"
	"github.com/jhoicas/portal-interno/pkg/config"
	"github.com/jhoicas/portal-interno/pkg/logger"
)

func main() {
	csvPath := "usuarios.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	client := supabase.NewClient(supabase.Config{
		URL:            cfg.Supabase.URL,
		AnonKey:        cfg.Supabase.AnonKey,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
	}, log.Zerolog())
	uc := usecase.NewUserUseCase(client, cfg.Portal.EmailDomain, cfg.Portal.PublicURL+"/redefinir-senha", log.Zerolog())

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if _, err := r.Read(); err != nil {
		fmt.Fprintf(os.Stderr, "Leer cabecera: %v\n", err)
		os.Exit(1)
	}

	var created, skipped, failed int
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "línea %d: %v\n", line, err)
			failed++
			continue
		}
		if len(rec) < 3 {
			fmt.Fprintf(os.Stderr, "línea %d: se esperaban al menos 3 columnas\n", line)
			failed++
			continue
		}

		in := dto.CreateUserRequest{
			Email:    strings.TrimSpace(rec[0]),
			Username: strings.TrimSpace(rec[1]),
			Cargo:    strings.TrimSpace(rec[2]),
		}
		generated := false
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			in.Password = strings.TrimSpace(rec[3])
		} else {
			in.Password = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
			generated = true
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		out, err := uc.CreateUser(ctx, "seed_users", in)
		cancel()
		switch {
		case errors.Is(err, domain.ErrConflict):
			fmt.Fprintf(os.Stderr, "línea %d: %s ya existe, se omite\n", line, in.Email)
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "línea %d: %v\n", line, err)
			failed++
		default:
			created++
			if generated {
				fmt.Printf("%s,%s\n", out.Email, in.Password)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Creados: %d, existentes: %d, errores: %d\n", created, skipped, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
