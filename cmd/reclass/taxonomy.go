package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tiendamoda/reclass/internal/cli"
)

func taxonomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect the active taxonomy",
	}

	cmd.AddCommand(taxonomyValidateCmd())
	cmd.AddCommand(taxonomyShowCmd())

	return cmd
}

func taxonomyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured taxonomy file",
		RunE: func(_ *cobra.Command, _ []string) error {
			idx, err := loadIndex()
			if err != nil {
				fmt.Println(cli.FormatError(err.Error()))
				return err
			}

			subcount := 0
			for _, cat := range idx.Categories() {
				subcount += len(idx.SubcategoriesOf(cat))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Taxonomy is valid: %d categories, %d subcategories, %d genders",
				len(idx.Categories()), subcount, len(idx.Taxonomy().Genders))))
			return nil
		},
	}
}

func taxonomyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print categories, subcategories and genders",
		RunE: func(_ *cobra.Command, _ []string) error {
			idx, err := loadIndex()
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Taxonomy"))
			for _, cat := range idx.Categories() {
				fmt.Println(cli.TableCellStyle.Render(cat))
				for _, sub := range idx.SubcategoriesOf(cat) {
					fmt.Println(cli.SubtleStyle.Render("  " + sub))
				}
			}

			fmt.Println()
			fmt.Printf("Genders: %s\n", strings.Join(idx.Taxonomy().Genders, ", "))
			return nil
		},
	}
}
