package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/appservices-go/internal/adminapi"
)

// Flags shared by the resource commands.
const (
	flagNameService = "service"
	flagNameData    = "data"
	flagNameQuery   = "query"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "kinds",
		Short:       "List the resource kinds the other commands accept",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE:        runKinds,
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List resources of a kind",
		Args:  cobra.ExactArgs(1),
		RunE:  runList,
	}

	cmd.Flags().String(flagNameService, "", "service ID (required for rules)")
	cmd.Flags().StringArray(flagNameQuery, nil, "query parameter as key=value (repeatable)")

	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show a single resource",
		Args:  cobra.ExactArgs(2),
		RunE:  runGet,
	}

	cmd.Flags().String(flagNameService, "", "service ID (required for rules)")

	return cmd
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a resource from a JSON document",
		Long: `Create a resource from a JSON document. The document is read from the
file named by --data, or from stdin when --data is "-" or omitted.`,
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}

	cmd.Flags().String(flagNameService, "", "service ID (required for rules)")
	cmd.Flags().String(flagNameData, "-", "JSON document file, or - for stdin")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Replace a resource with a JSON document",
		Args:  cobra.ExactArgs(2),
		RunE:  runUpdate,
	}

	cmd.Flags().String(flagNameService, "", "service ID (required for rules)")
	cmd.Flags().String(flagNameData, "-", "JSON document file, or - for stdin")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete a resource",
		Args:  cobra.ExactArgs(2),
		RunE:  runDelete,
	}

	cmd.Flags().String(flagNameService, "", "service ID (required for rules)")

	return cmd
}

func runKinds(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	kinds := adminapi.Kinds()

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, kinds)
	}

	rows := make([][]string, 0, len(kinds))
	for _, k := range kinds {
		scope := "app"

		switch {
		case k == adminapi.KindApps:
			scope = "group"
		case k.RequiresService():
			scope = "service"
		}

		rows = append(rows, []string{string(k), scope})
	}

	printTable(cc.Stdout, []string{"KIND", "SCOPE"}, rows)

	return nil
}

// openResource resolves the kind argument and returns a handle for it along
// with the session-bound context.
func openResource(cmd *cobra.Command, kindArg string) (context.Context, *CLIContext, adminapi.Resource[json.RawMessage], error) {
	kind, err := adminapi.ParseKind(kindArg)
	if err != nil {
		return nil, nil, nil, err
	}

	serviceID, err := cmd.Flags().GetString(flagNameService)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cc, client, err := connect(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := client.Generic(ctx, kind, serviceID)
	if err != nil {
		return nil, nil, nil, err
	}

	return ctx, cc, res, nil
}

func runList(cmd *cobra.Command, args []string) error {
	rawQuery, err := cmd.Flags().GetStringArray(flagNameQuery)
	if err != nil {
		return err
	}

	query, err := parseQuery(rawQuery)
	if err != nil {
		return err
	}

	ctx, cc, res, err := openResource(cmd, args[0])
	if err != nil {
		return err
	}

	docs, err := res.List(ctx, query)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, docs)
	}

	if len(docs) == 0 {
		cc.Statusf("No %s found.\n", args[0])

		return nil
	}

	printTable(cc.Stdout, []string{"ID", "NAME", "TYPE"}, summarizeDocuments(docs))

	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx, cc, res, err := openResource(cmd, args[0])
	if err != nil {
		return err
	}

	doc, err := res.Get(ctx, args[1])
	if err != nil {
		return err
	}

	return writeJSON(cc.Stdout, doc)
}

func runCreate(cmd *cobra.Command, args []string) error {
	body, err := readDocument(cmd)
	if err != nil {
		return err
	}

	ctx, cc, res, err := openResource(cmd, args[0])
	if err != nil {
		return err
	}

	created, err := res.Create(ctx, body)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return writeJSON(cc.Stdout, created)
	}

	summary := summarizeDocuments([]json.RawMessage{*created})
	cc.Statusf("Created %s %s.\n", args[0], summary[0][0])

	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	body, err := readDocument(cmd)
	if err != nil {
		return err
	}

	ctx, cc, res, err := openResource(cmd, args[0])
	if err != nil {
		return err
	}

	if err := res.Update(ctx, args[1], body); err != nil {
		return err
	}

	cc.Statusf("Updated %s %s.\n", args[0], args[1])

	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx, cc, res, err := openResource(cmd, args[0])
	if err != nil {
		return err
	}

	if err := res.Delete(ctx, args[1]); err != nil {
		return err
	}

	cc.Statusf("Deleted %s %s.\n", args[0], args[1])

	return nil
}

// parseQuery turns repeated key=value flags into url.Values.
func parseQuery(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	query := url.Values{}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query %q: expected key=value", pair)
		}

		query.Add(key, value)
	}

	return query, nil
}

// readDocument reads the --data document and checks that it is JSON.
func readDocument(cmd *cobra.Command) (json.RawMessage, error) {
	source, err := cmd.Flags().GetString(flagNameData)
	if err != nil {
		return nil, err
	}

	var r io.Reader = cmd.InOrStdin()

	if source != "-" {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening document: %w", err)
		}
		defer f.Close()

		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("document is not valid JSON")
	}

	return json.RawMessage(data), nil
}

// documentSummary holds the fields shown in list tables. Services use
// "type"; functions, triggers and values use "name".
type documentSummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// summarizeDocuments extracts table rows from raw documents. Documents that
// do not decode as objects render as empty cells.
func summarizeDocuments(docs []json.RawMessage) [][]string {
	rows := make([][]string, 0, len(docs))

	for _, doc := range docs {
		var s documentSummary
		if err := json.Unmarshal(doc, &s); err != nil {
			s = documentSummary{}
		}

		rows = append(rows, []string{orDash(s.ID), orDash(s.Name), orDash(s.Type)})
	}

	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
