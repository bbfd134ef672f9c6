package main

import (
	"fmt"
	"os"

	"github.com/agilira/iris"
	"github.com/spf13/cobra"

	"github.com/porelle-logan/choochoo/fit"
	"github.com/porelle-logan/choochoo/fitlog"
	"github.com/porelle-logan/choochoo/profile"
)

// defaultProfileEnv mirrors the teacher's GOFIT_DEBUG environment
// convention: CHOOCHOO_FIT_PROFILE overrides the default profile workbook
// path when --profile is not given (SPEC_FULL.md "Configuration").
const defaultProfileEnv = "CHOOCHOO_FIT_PROFILE"

func newCompileProfileCmd() *cobra.Command {
	var profilePath, cachePath string

	cmd := &cobra.Command{
		Use:   "compile-profile",
		Short: "Compile a FIT profile workbook into a schema cache",
		Long:  "Reads the Types and Messages sheets of a FIT SDK profile workbook, compiles them, writes a schema cache, then reloads it as a smoke test (supplemented feature: package_fit_profile round-trip).",
		RunE: func(cmd *cobra.Command, args []string) error {
			if profilePath == "" {
				profilePath = os.Getenv(defaultProfileEnv)
			}
			if profilePath == "" {
				return fmt.Errorf("choochoo-fit: --profile or %s must be set", defaultProfileEnv)
			}

			logger, err := iris.New()
			if err != nil {
				return err
			}
			log := fitlog.New(logger, "profile-compiler")

			doc, err := profile.Open(profilePath)
			if err != nil {
				return fmt.Errorf("opening profile workbook: %w", err)
			}
			defer doc.Close()

			types, err := doc.Sheet(profile.TypesSheet)
			if err != nil {
				return fmt.Errorf("reading %s sheet: %w", profile.TypesSheet, err)
			}
			messages, err := doc.Sheet(profile.MessagesSheet)
			if err != nil {
				return fmt.Errorf("reading %s sheet: %w", profile.MessagesSheet, err)
			}

			reg, cat, err := fit.CompileProfile(log, types, messages)
			if err != nil {
				return fmt.Errorf("compiling profile: %w", err)
			}

			out, err := os.Create(cachePath)
			if err != nil {
				return err
			}
			if err := fit.SaveSchema(out, reg, cat); err != nil {
				out.Close()
				return fmt.Errorf("writing schema cache: %w", err)
			}
			if err := out.Close(); err != nil {
				return err
			}

			// Reload immediately as a smoke test, exactly as the original's
			// package_fit_profile does after writing the pickle.
			in, err := os.Open(cachePath)
			if err != nil {
				return err
			}
			defer in.Close()
			reloadedReg, reloadedCat, err := fit.LoadSchema(in, log)
			if err != nil {
				return fmt.Errorf("reloading schema cache: %w", err)
			}

			log.Infof("compiled %d types and %d messages into %s", reloadedReg.Len(), reloadedCat.Len(), cachePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&profilePath, "profile", "", "path to the FIT profile workbook (.xlsx)")
	cmd.Flags().StringVar(&cachePath, "cache", "fit_profile.cache", "path to write the compiled schema cache to")

	return cmd
}
