package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/nipscore/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect question catalogs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the built-in catalogs",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return runCatalogList(a)
			},
		},
		&cobra.Command{
			Use:   "check [catalog-ref]",
			Short: "Check a catalog for definition drift (default: the configured catalog)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				if len(args) == 1 {
					a.cfg.Catalog = args[0]
				}
				return runCatalogCheck(a)
			},
		},
	)
	return cmd
}

func runCatalogList(a *app) error {
	names, err := catalog.List()
	if err != nil {
		return fmt.Errorf("failed to list catalogs: %w", err)
	}
	for _, name := range names {
		c, err := catalog.LoadBuiltin(name)
		if err != nil {
			return exitError(exitInput, "failed to load catalog: %v", err)
		}
		fmt.Fprintf(a.stdout, "%s%s\t%s\t%d patterns\t%d questions\n",
			catalog.BuiltinPrefix, name, c.Version, len(c.Patterns), len(c.Questions))
	}
	return nil
}

func runCatalogCheck(a *app) error {
	c, err := a.loadCatalog()
	if err != nil {
		return err
	}
	errs := catalog.Check(c)
	if len(errs) > 0 {
		fmt.Fprintf(a.stderr, "Catalog %s has %d problems:\n", c.Name, len(errs))
		for _, e := range errs {
			fmt.Fprintf(a.stderr, "  %s\n", e)
		}
		return exitError(exitCheck, "catalog %s failed consistency check", c.Name)
	}
	fmt.Fprintf(a.stdout, "catalog %s %s: ok (%d patterns, %d questions)\n",
		c.Name, c.Version, len(c.Patterns), len(c.Questions))
	return nil
}
