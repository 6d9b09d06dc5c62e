package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formrun/internal/prompt"
	"github.com/goliatone/go-formrun/pkg/openapi"
	"github.com/goliatone/go-formrun/pkg/schema"
	"github.com/goliatone/go-formrun/pkg/session"
	"github.com/goliatone/go-formrun/pkg/storage"
)

func main() {
	schemaPath := flag.String("schema", "", "form schema file (JSON or YAML)")
	openapiPath := flag.String("openapi", "", "OpenAPI document to import the schema from")
	operation := flag.String("operation", "", "operation id when importing from OpenAPI")
	stateDir := flag.String("state", defaultStateDir(), "directory for draft files")
	output := flag.String("output", "", "write the submission record here (stdout if empty)")
	verbose := flag.Bool("verbose", false, "log storage and submit diagnostics")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	ctx := context.Background()
	form, err := loadForm(ctx, *schemaPath, *openapiPath, *operation)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load schema")
	}

	store, err := storage.NewFileStore(*stateDir)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open draft storage")
	}

	sess, err := session.New(form,
		session.WithDraftStore(store),
		session.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("schema has configuration errors")
	}
	defer sess.Close()

	filler := prompt.NewFiller(sess, prompt.NewSurveyDriver())
	record, err := filler.Run(ctx)
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Fprintln(os.Stderr, "aborted")
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("fill session failed")
	}

	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not encode submission")
	}
	if *output != "" {
		if err := os.WriteFile(*output, encoded, 0o644); err != nil {
			log.Fatal().Err(err).Msg("could not write submission")
		}
		fmt.Printf("Submission written to %s\n", *output)
		return
	}
	fmt.Println(string(encoded))
}

func loadForm(ctx context.Context, schemaPath, openapiPath, operation string) (schema.Form, error) {
	switch {
	case schemaPath != "":
		raw, err := os.ReadFile(schemaPath)
		if err != nil {
			return schema.Form{}, err
		}
		return schema.Parse(raw)
	case openapiPath != "":
		if operation == "" {
			return schema.Form{}, errors.New("-operation is required with -openapi")
		}
		raw, err := os.ReadFile(openapiPath)
		if err != nil {
			return schema.Form{}, err
		}
		return openapi.Import(ctx, raw, operation, openapi.WithSettings(false, true))
	default:
		return schema.Form{}, errors.New("one of -schema or -openapi is required")
	}
}

func defaultStateDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "formrun")
	}
	return ".formrun"
}
