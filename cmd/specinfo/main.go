// Command specinfo inspects an API description the way the assistant sees
// it: which operations exist and which inputs each one collects.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
)

var (
	specPath string
	asJSON   bool

	rootCmd = &cobra.Command{
		Use:   "specinfo",
		Short: "Inspect the operations an API description exposes",
		Long:  "specinfo loads an OpenAPI 3.x or Swagger 2.0 file and reports the operations and parameters the chat assistant would collect for it.",
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List every operation in the description",
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			ops := catalog.List()
			if asJSON {
				return printJSON(ops)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tOPERATION\tSUMMARY")
			for _, op := range ops {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.Method, op.Path, op.ID, op.Summary)
			}
			return w.Flush()
		},
	}

	showCmd = &cobra.Command{
		Use:   "show [method] [path]",
		Short: "Show the parameters one operation collects",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			info, err := catalog.Get(args[1], args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(info)
			}
			fmt.Printf("%s %s", info.Method, info.Path)
			if info.OperationID != "" {
				fmt.Printf(" (%s)", info.OperationID)
			}
			fmt.Println()
			if info.Summary != "" {
				fmt.Println(info.Summary)
			}
			if len(info.Parameters) == 0 {
				fmt.Println("No parameters.")
				return nil
			}
			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLOCATION\tTYPE\tREQUIRED\tDESCRIPTION")
			for _, p := range info.Parameters {
				required := ""
				if p.Required {
					required = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Location, p.Schema.Type, required, p.Description)
			}
			return w.Flush()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&specPath, "spec", "s", "openapi.yaml", "Path to the API description file")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	rootCmd.AddCommand(listCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalog() (*openapi.Catalog, error) {
	doc, err := openapi.Load(specPath)
	if err != nil {
		return nil, err
	}
	return openapi.NewCatalog(doc, nil), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
