package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/model"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the record types fabricctl can convert",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-36s %-30s %s\n", "TYPE", "RECORD", "VARIANTS")
			for _, t := range model.Types.Types() {
				variants := "-"
				if len(t.Variants) > 0 {
					variants = strings.Join(t.Variants, ",")
				}
				fmt.Fprintf(out, "%-36s %-30s %s\n", t.Name, t.Record, variants)
			}
			return nil
		},
	}
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a record to canonical JSON",
		Long: `Decode a record and write it back in canonical form: unknown
properties dropped, unset optional properties omitted and fields in the
order the server emits them.

Examples:
  # Normalize a captured health report
  fabricctl convert --type health-information -f report.json

  # Write a service description from YAML
  fabricctl convert --type service-description -f service.yaml --indent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, data, err := readRecordInput(cmd)
			if err != nil {
				return err
			}
			indent, _ := cmd.Flags().GetBool("indent")
			out, err := t.Canonicalize(data, indent)
			if err != nil {
				return err
			}
			logger := log.WithRecordType(t.Record)
			logger.Debug().
				Int("in_bytes", len(data)).
				Int("out_bytes", len(out)).
				Msg("record converted")
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	addRecordInputFlags(cmd)
	cmd.Flags().Bool("indent", false, "Indent the output")
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a record decodes and passes validation",
		Long: `Decode a record and report whether it is valid. An invalid record
prints the failure code and exits with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, data, err := readRecordInput(cmd)
			if err != nil {
				return err
			}
			if _, err := t.Decode(data); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid %s: %s\n", t.Name, apierror.CodeOf(err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s\n", t.Name)
			return nil
		},
	}
	addRecordInputFlags(cmd)
	return cmd
}

func addRecordInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", "", "Record type (see 'fabricctl types') (required)")
	cmd.Flags().StringP("file", "f", "-", "Input file, or - for stdin")
	cmd.Flags().String("input", "auto", "Input format: json, yaml or auto")
	_ = cmd.MarkFlagRequired("type")
}

// readRecordInput resolves --type and reads the document named by --file,
// converting YAML to JSON when needed.
func readRecordInput(cmd *cobra.Command) (model.Type, []byte, error) {
	typeName, _ := cmd.Flags().GetString("type")
	filename, _ := cmd.Flags().GetString("file")
	format, _ := cmd.Flags().GetString("input")

	t, err := model.Types.Lookup(typeName)
	if err != nil {
		return model.Type{}, nil, err
	}
	data, err := readFile(cmd, filename)
	if err != nil {
		return model.Type{}, nil, err
	}
	data, err = toJSON(data, inputFormat(format, filename))
	if err != nil {
		return model.Type{}, nil, err
	}
	return t, data, nil
}

func readFile(cmd *cobra.Command, filename string) ([]byte, error) {
	if filename == "" || filename == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %v", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %v", err)
	}
	return data, nil
}

// inputFormat resolves "auto" from the file extension
func inputFormat(format, filename string) string {
	if format != "auto" {
		return format
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

func toJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case "json":
		return data, nil
	case "yaml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %v", err)
		}
		out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(stringKeys(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to convert YAML to JSON: %v", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// stringKeys rewrites maps with non-string keys, which YAML allows and
// JSON does not.
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = stringKeys(item)
		}
		return val
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprintf("%v", k)] = stringKeys(item)
		}
		return m
	case []any:
		for i, item := range val {
			val[i] = stringKeys(item)
		}
		return val
	}
	return v
}
