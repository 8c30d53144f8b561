package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/auth"
	"github.com/siscert/api/internal/db"
	"github.com/siscert/api/internal/empresa"
	"github.com/siscert/api/internal/repo"
)

type contaPadrao struct {
	login string
	senha string
	nome  string
}

var contasPadrao = []contaPadrao{
	{login: "admin", senha: "1234", nome: "Administrador"},
	{login: "superadmin", senha: "12345678", nome: "Super Administrador"},
}

var tiposPadrao = []string{
	"Receita Federal",
	"SEFAZ",
	"Prefeitura",
	"Trabalhista",
	"Falência e Concordata",
	"FGTS",
	"CGU",
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "migrate" {
		if err := db.Migrate(dsn); err != nil {
			log.Fatal().Err(err).Msg("falha ao aplicar migrations")
		}
		log.Info().Msg("migrations aplicadas")
		return
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	queries := repo.New(pool)
	empresas := empresa.NewService(empresa.NewRepository(pool))

	switch cmd {
	case "seed":
		if err := runSeed(ctx, queries); err != nil {
			log.Fatal().Err(err).Msg("falha no seed")
		}
	case "empresa":
		if err := runEmpresa(ctx, empresas, args); err != nil {
			log.Fatal().Err(err).Msg("falha no comando empresa")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "siscert CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  siscert migrate")
	fmt.Fprintln(os.Stderr, "  siscert seed")
	fmt.Fprintln(os.Stderr, "  siscert empresa create --nome \"Matriz\" [--ordem 1] [--cor #1e40af]")
	fmt.Fprintln(os.Stderr, "  siscert empresa list [--todas]")
}

// runSeed cria contas administrativas e o catálogo de tipos. Itens já
// existentes são mantidos.
func runSeed(ctx context.Context, q *repo.Queries) error {
	for _, c := range contasPadrao {
		_, err := q.GetUsuarioByLogin(ctx, c.login)
		if err == nil {
			log.Info().Str("login", c.login).Msg("conta já existe")
			continue
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		hash, err := auth.Hash(c.senha)
		if err != nil {
			return err
		}
		nome := c.nome
		if _, err := q.InsertUsuario(ctx, repo.InsertUsuarioParams{
			Login:     c.login,
			SenhaHash: hash,
			Nome:      &nome,
			Role:      "admin",
			Status:    repo.StatusAtivo,
		}); err != nil {
			return fmt.Errorf("criar %s: %w", c.login, err)
		}
		log.Info().Str("login", c.login).Msg("conta criada")
	}

	existentes, err := q.ListTipos(ctx, false)
	if err != nil {
		return err
	}
	nomes := make(map[string]bool, len(existentes))
	for _, t := range existentes {
		nomes[strings.ToLower(t.Nome)] = true
	}
	for i, nome := range tiposPadrao {
		if nomes[strings.ToLower(nome)] {
			continue
		}
		if _, err := q.InsertTipo(ctx, nome, i+1); err != nil {
			return fmt.Errorf("criar tipo %s: %w", nome, err)
		}
		log.Info().Str("tipo", nome).Msg("tipo criado")
	}
	return nil
}

func runEmpresa(ctx context.Context, service *empresa.Service, args []string) error {
	if len(args) == 0 {
		return errors.New("informe create ou list")
	}
	switch args[0] {
	case "create":
		return runEmpresaCreate(ctx, service, args[1:])
	case "list":
		return runEmpresaList(ctx, service, args[1:])
	}
	return fmt.Errorf("subcomando desconhecido: %s", args[0])
}

func runEmpresaCreate(ctx context.Context, service *empresa.Service, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		nome  = fs.String("nome", "", "nome da empresa")
		ordem = fs.Int("ordem", -1, "posição na listagem")
		cor   = fs.String("cor", "", "cor de destaque (ex.: #1e40af)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	in := empresa.CreateInput{Nome: *nome}
	if *ordem >= 0 {
		in.Ordem = ordem
	}
	if *cor != "" {
		in.Cor = cor
	}

	created, err := service.Create(ctx, in)
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(created, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runEmpresaList(ctx context.Context, service *empresa.Service, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	todas := fs.Bool("todas", false, "inclui empresas inativas")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := service.List(ctx, !*todas)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("nenhuma empresa cadastrada")
		return nil
	}

	encoded, _ := json.MarshalIndent(list, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
