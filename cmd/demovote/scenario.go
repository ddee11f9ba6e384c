package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/playperu/demovote/internal/imaging"
	"github.com/playperu/demovote/internal/scenario"
	"github.com/playperu/demovote/internal/server"
)

// withStore runs fn against the configured scenario store.
func (c *cli) withStore(cmd *cobra.Command, fn func(ctx context.Context, store *server.SlotStore, logger *slog.Logger, opts imaging.Options) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, closeDB, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(ctx, store, c.logger(cmd.ErrOrStderr(), cfg), imaging.Options{
		MaxEdge:   cfg.ImageMaxEdge,
		Quality:   cfg.ImageQuality,
		MaxPixels: cfg.ImageMaxPixels,
	})
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored scenario and the ballot table it produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store *server.SlotStore, logger *slog.Logger, _ imaging.Options) error {
				rec, isDefault := server.LoadRecord(ctx, store, logger)
				out := cmd.OutOrStdout()
				if isDefault {
					fmt.Fprintln(out, "(no scenario stored, showing the default)")
				} else if at, err := store.UpdatedAt(ctx); err == nil {
					fmt.Fprintf(out, "saved %s\n", at.Local().Format(time.DateTime))
				}
				printView(out, scenario.Project(rec, ""))
				return nil
			})
		},
	}
}

func printView(w io.Writer, v scenario.View) {
	fmt.Fprintln(w, v.ConstituencyName)
	fmt.Fprintln(w, v.InstructionText)
	fmt.Fprintln(w, v.InfoLine)
	fmt.Fprintln(w)
	for _, row := range v.Rows {
		marker := " "
		if row.Target {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %3s  %s\n", marker, row.Label, row.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s  %s\n", v.Footer.Website, v.Footer.Phone)
}

func (c *cli) exportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the stored scenario as YAML or JSON",
		Long: `Write the stored scenario to file, or to stdout when no file is given.

The format follows the file extension (.json, .yaml, .yml) unless --format
is set. The output can be fed back to import.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store *server.SlotStore, logger *slog.Logger, _ imaging.Options) error {
				rec, isDefault := server.LoadRecord(ctx, store, logger)
				if isDefault {
					return errors.New("no scenario stored")
				}
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				data, err := marshalScenario(rec, formatFor(format, path))
				if err != nil {
					return err
				}
				if path == "" || path == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				return os.WriteFile(path, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format: yaml or json")
	return cmd
}

func formatFor(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

func marshalScenario(rec scenario.Record, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return nil, err
		}
		return buf.Bytes(), enc.Close()
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a YAML or JSON scenario file and store it",
		Long: `Read a scenario from a YAML or JSON file, validate it and replace the
stored scenario with it.

candidatePhoto and candidateSymbol may hold image data URIs or paths to
image files; paths are resolved relative to the scenario file and the
images are scaled and re-encoded the same way as editor uploads.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd, func(ctx context.Context, store *server.SlotStore, logger *slog.Logger, opts imaging.Options) error {
				in, err := readInput(args[0])
				if err != nil {
					return err
				}
				if err := resolveImages(&in, filepath.Dir(args[0]), opts); err != nil {
					return err
				}
				rec, err := server.SaveInput(ctx, store, in, time.Now())
				if err != nil {
					if ve, ok := scenario.IsValidation(err); ok {
						return fmt.Errorf("%s: %s", ve.Field, ve.Message)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored scenario for %s (%d candidates, position %d)\n",
					rec.ConstituencyName, rec.TotalCandidates, rec.CandidatePosition)
				return nil
			})
		},
	}
}

func readInput(path string) (scenario.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario.Input{}, fmt.Errorf("reading scenario file: %w", err)
	}
	var in scenario.Input
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &in)
	} else {
		err = yaml.Unmarshal(data, &in)
	}
	if err != nil {
		return scenario.Input{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return in, nil
}

// resolveImages turns image file references into normalized data URIs and
// bounds embedded data URIs the same way.
func resolveImages(in *scenario.Input, dir string, opts imaging.Options) error {
	for name, field := range map[string]*string{
		"candidatePhoto":  &in.CandidatePhoto,
		"candidateSymbol": &in.CandidateSymbol,
	} {
		v := strings.TrimSpace(*field)
		switch {
		case v == "":
			continue
		case strings.HasPrefix(v, "data:"):
			bounded, err := imaging.NormalizeDataURI(v, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field = bounded
		default:
			if !filepath.IsAbs(v) {
				v = filepath.Join(dir, v)
			}
			f, err := os.Open(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			img, err := imaging.Normalize(f, opts)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*field = img.DataURI
		}
	}
	return nil
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the stored scenario so the booth shows the default again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withStore(cmd, func(ctx context.Context, store *server.SlotStore, _ *slog.Logger, _ imaging.Options) error {
				err := store.Clear(ctx)
				if errors.Is(err, server.ErrNotFound) {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing stored")
					return nil
				}
				if err != nil {
					return fmt.Errorf("clearing scenario: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "scenario cleared")
				return nil
			})
		},
	}
}
