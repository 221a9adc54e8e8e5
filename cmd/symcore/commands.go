package main

import (
	"fmt"

	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/internal/httpapi"
	"github.com/njchilds90/symcore/internal/mcpserver"
	"github.com/spf13/cobra"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify <expr.json | file | ->",
	Short: "Normalize an expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()
		e, err := readExpr(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := deps.engine.Simplify(cmd.Context(), e)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff <expr.json | file | ->",
	Short: "Differentiate an expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variable, _ := cmd.Flags().GetString("var")
		n, _ := cmd.Flags().GetInt("n")
		deps, err := setup(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()
		e, err := readExpr(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := deps.engine.DiffN(cmd.Context(), e, variable, n)
		if err != nil {
			return err
		}
		return printResult(cmd, res)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves /simplify, /differentiate, /batch, /tool, /schema, /health and /metrics until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		deps, err := setup(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()
		h := httpapi.NewHandler(deps.engine,
			httpapi.WithLogger(deps.logger),
			httpapi.WithGatherer(deps.registry),
		)
		return httpapi.ListenAndServe(cmd.Context(), addr, h, deps.logger)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tools over MCP on stdin/stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := setup(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()
		deps.logger.Info("mcp server starting", "tools", len(symcore.ToolDefs()))
		return mcpserver.New(deps.engine, symcore.Version, deps.logger).ServeStdio()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of symcore",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "symcore version %s\n", symcore.Version)
	},
}

func init() {
	simplifyCmd.Flags().Bool("json", false, "Print the result as a JSON tree")
	diffCmd.Flags().Bool("json", false, "Print the result as a JSON tree")
	diffCmd.Flags().String("var", "x", "Variable to differentiate by")
	diffCmd.Flags().Int("n", 1, "Derivative order")
	serveCmd.Flags().String("addr", ":8080", "Listen address")

	rootCmd.AddCommand(simplifyCmd, diffCmd, serveCmd, mcpCmd, versionCmd)
}
