package main

import (
	"fmt"
	"os"

	"github.com/agilira/iris"
	"github.com/spf13/cobra"

	"github.com/porelle-logan/choochoo/fit"
	"github.com/porelle-logan/choochoo/fitlog"
)

func newDecodeCmd() *cobra.Command {
	var cachePath string

	cmd := &cobra.Command{
		Use:   "decode [fit file]",
		Short: "Decode a FIT activity file against a compiled schema cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := iris.New()
			if err != nil {
				return err
			}
			log := fitlog.New(logger, "record-decoder")

			cacheFile, err := os.Open(cachePath)
			if err != nil {
				return fmt.Errorf("opening schema cache: %w", err)
			}
			defer cacheFile.Close()
			reg, cat, err := fit.LoadSchema(cacheFile, log)
			if err != nil {
				return fmt.Errorf("loading schema cache: %w", err)
			}

			fitFile, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening FIT file: %w", err)
			}
			defer fitFile.Close()

			dec := fit.NewDecoder(reg, cat, log)
			records, err := dec.DecodeAll(fitFile)
			if err != nil {
				return fmt.Errorf("decoding FIT file: %w", err)
			}

			for _, rec := range records {
				fmt.Printf("%s %v\n", rec.Message.Name, rec.Values)
			}
			for num, count := range dec.UnknownMessageCounts() {
				log.Warnf("unknown message %d seen %d time(s)", num, count)
			}
			for key, count := range dec.UnknownFieldCounts() {
				log.Warnf("unknown field %s seen %d time(s)", key, count)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&cachePath, "cache", "fit_profile.cache", "path to a schema cache written by compile-profile")

	return cmd
}
