package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GitwithRaj/talktocart/internal/clients"
	"github.com/GitwithRaj/talktocart/internal/http/dto"
)

const (
	defaultServer = "http://localhost:8081"
	defaultUser   = "demo"
)

type options struct {
	server  string
	user    string
	timeout time.Duration
}

func (o *options) client() *clients.CartClient {
	return clients.NewCartClient(
		clients.NewClient("cart-service", o.server, &http.Client{Timeout: o.timeout}),
	)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "talktocart",
		Short: "Manage a shopping cart in plain language",
		Long: `talktocart sends natural-language commands to the cart service and
prints the resulting cart, messages and invoices.

Examples:
  talktocart say "add two shirts and a hat"
  talktocart remove hat
  talktocart invoice --text`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TALKTOCART_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "cart service base URL (env TALKTOCART_SERVER)")
	root.PersistentFlags().StringVarP(&opts.user, "user", "u", defaultUser, "user whose cart to act on")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newSayCmd(opts),
		newCartCmd(opts),
		newItemCmd(opts, dto.ItemActionAdd, "Add one unit of an item"),
		newItemCmd(opts, dto.ItemActionRemove, "Remove one unit of an item"),
		newInvoiceCmd(opts),
		newResetCmd(opts),
		newCatalogCmd(opts),
	)
	return root
}

func newSayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "say <prompt...>",
		Short: "Send a natural-language command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().Command(cmd.Context(), opts.user, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printCommand(cmd.OutOrStdout(), resp)
		},
	}
}

func newCartCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.client().GetCart(cmd.Context(), opts.user)
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), resp.Cart)
		},
	}
}

func newItemCmd(opts *options, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <item>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().Adjust(cmd.Context(), opts.user, args[0], action)
			if err != nil {
				return err
			}
			return printCommand(cmd.OutOrStdout(), resp)
		},
	}
}

func newInvoiceCmd(opts *options) *cobra.Command {
	var asText bool
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Generate an invoice for the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			if asText {
				text, err := c.InvoiceText(cmd.Context(), opts.user)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write([]byte(text))
				return err
			}
			doc, err := c.Invoice(cmd.Context(), opts.user)
			if err != nil {
				return err
			}
			return printInvoice(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().BoolVar(&asText, "text", false, "print the server's plain-text rendering")
	return cmd
}

func newResetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.client().Reset(cmd.Context(), opts.user)
			if err != nil {
				return err
			}
			return printCart(cmd.OutOrStdout(), resp.Cart)
		},
	}
}

func newCatalogCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List purchasable items and prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.client().Catalog(cmd.Context())
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), resp.Items)
		},
	}
}
