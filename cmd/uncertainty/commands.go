package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zephyrtronium/uncertainty"
	"github.com/zephyrtronium/uncertainty/config"
	"github.com/zephyrtronium/uncertainty/expressions"
	"github.com/zephyrtronium/uncertainty/server"
)

// app is the state shared by subcommands after the root command loads the
// configuration.
type app struct {
	configFile string
	cfg        *config.Config
	log        *logrus.Logger
}

func newRootCommand() *cobra.Command {
	var a app
	cmd := &cobra.Command{
		Use:          "uncertainty",
		Short:        "Propagate measurement uncertainty through functions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				return errors.WithMessage(err, "failed to load config")
			}
			log, err := cfg.Logger.NewLogger()
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file path (default ./uncertainty.yaml or ~/.uncertainty/uncertainty.yaml)")
	cmd.AddCommand(
		newEvalCommand(&a),
		newDiffCommand(&a),
		newServeCommand(&a),
	)
	return cmd
}

func (a *app) engine(prec uint) *uncertainty.BigEngine {
	if prec == 0 {
		prec = a.cfg.Precision
	}
	return uncertainty.NewEngine(uncertainty.Precision(prec))
}

func newEvalCommand(a *app) *cobra.Command {
	var (
		function string
		defs     []string
		file     string
		verb     string
		prec     uint
		signed   bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Derive and evaluate the uncertainty of a function",
		Long: `Derive the uncertainty of a function of measured variables and evaluate it.

The function comes from --function, from a worksheet given by --file, or from
standard input. Variables are given as name=value±uncertainty, with +- accepted
in place of ±.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := &worksheet{}
			if file != "" {
				var err error
				if ws, err = loadWorksheet(file); err != nil {
					return err
				}
			}
			if function != "" {
				ws.Function = function
			}
			if ws.Function == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				ws.Function = strings.TrimSpace(string(b))
			}
			for _, d := range defs {
				v, err := parseVariable(d)
				if err != nil {
					return err
				}
				ws.Variables = append(ws.Variables, v)
			}

			var bopts []uncertainty.BuilderOption
			if signed || a.cfg.Builder.SignedSingleTerm {
				bopts = append(bopts, uncertainty.WithSignedSingleTerm())
			}
			s := uncertainty.NewSession(
				uncertainty.WithEngine(a.engine(prec)),
				uncertainty.WithLogger(a.log),
				uncertainty.WithBuilderOptions(bopts...),
			)
			for _, v := range ws.Variables {
				if err := s.AddVariable(v.Name, v.Value, v.Uncertainty); err != nil {
					return err
				}
			}
			if err := s.SetFunction(ws.Function); err != nil {
				return err
			}
			out, err := s.DeriveAndEvaluate()
			if err != nil {
				return err
			}
			for _, name := range out.Missing {
				a.log.WithField("variable", name).Warn("variable has no measurement")
			}
			return printOutcome(cmd.OutOrStdout(), out, verb)
		},
	}
	cmd.Flags().StringVarP(&function, "function", "f", "", "function to evaluate")
	cmd.Flags().StringArrayVarP(&defs, "var", "v", nil, "variable definition name=value±uncertainty (any number of times)")
	cmd.Flags().StringVar(&file, "file", "", "YAML worksheet with function and variables")
	cmd.Flags().StringVar(&verb, "fmt", "%g", "result formatting verb")
	cmd.Flags().UintVarP(&prec, "precision", "p", 0, "precision of calculations in bits (default from config)")
	cmd.Flags().BoolVar(&signed, "signed", false, "keep the sign of a single-variable uncertainty")
	return cmd
}

func printOutcome(w io.Writer, out uncertainty.Outcome, verb string) error {
	num := func(x float64, err error) string {
		if err != nil {
			return "Error (" + err.Error() + ")"
		}
		return fmt.Sprintf(verb, x)
	}
	r := out.Result
	_, err := fmt.Fprintf(w, "function:    %s\nuncertainty: %s\nvalue:       %s\n±:           %s\nresult:      %s\n",
		out.Function,
		out.UncertaintyText,
		num(r.Value, r.ValueErr),
		num(r.Uncertainty, r.UncertaintyErr),
		r.String(),
	)
	return err
}

func newDiffCommand(a *app) *cobra.Command {
	var (
		function string
		wrt      []string
		tree     bool
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Print partial derivatives of a function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := expressions.ParseString(function)
			if err != nil {
				return &uncertainty.ParseError{Text: function, Err: err}
			}
			if len(wrt) == 0 {
				wrt = f.Vars()
			}
			w := cmd.OutOrStdout()
			for _, name := range wrt {
				d, err := expressions.Derivative(f, name)
				if err != nil {
					return &uncertainty.DifferentiationError{Variable: name, Err: err}
				}
				if tree {
					fmt.Fprintf(w, "d/d%s = %s\n", name, d.Tree())
					continue
				}
				fmt.Fprintf(w, "d/d%s = %s\n", name, d)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&function, "function", "f", "", "function to differentiate")
	cmd.Flags().StringArrayVarP(&wrt, "wrt", "w", nil, "variable of differentiation (default all variables)")
	cmd.Flags().BoolVar(&tree, "tree", false, "print parse trees")
	_ = cmd.MarkFlagRequired("function")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr()
			}
			if a.cfg.File != "" {
				_, err := config.Watch(a.cfg.File, func(c *config.Config) {
					if err := c.Logger.Apply(a.log); err != nil {
						a.log.WithError(err).Warn("applying reloaded logger config")
						return
					}
					a.log.Info("logger config reloaded")
				}, func(err error) {
					a.log.WithError(err).Warn("config reload failed")
				})
				if err != nil {
					a.log.WithError(err).Warn("not watching config")
				}
			}
			if !a.log.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := server.New(a.log,
				uncertainty.WithEngine(a.engine(0)),
				uncertainty.WithBuilderOptions(a.cfg.Builder.Options()...),
			)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config server.host and server.port)")
	return cmd
}
