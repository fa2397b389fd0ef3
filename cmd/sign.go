package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmehdipour/agent-bridge/internal/config"
	"github.com/jmehdipour/agent-bridge/internal/signature"
	"github.com/spf13/cobra"
)

var (
	signSecret string
	signFile   string
)

// signCmd prints the signature header value for a payload, for replaying deliveries by hand.
var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Compute the webhook signature of a payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := signSecret
		if secret == "" {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			secret = cfg.Webhook.Secret
		}
		if secret == "" {
			return errors.New("no secret: pass --secret or set SANITY_WEBHOOK_SECRET")
		}

		var (
			body []byte
			err  error
		)
		if signFile == "" || signFile == "-" {
			body, err = io.ReadAll(cmd.InOrStdin())
		} else {
			body, err = os.ReadFile(signFile)
		}
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), signature.Sign(body, secret))
		return err
	},
}

func init() {
	signCmd.Flags().StringVar(&signSecret, "secret", "", "shared secret (defaults to the configured webhook secret)")
	signCmd.Flags().StringVarP(&signFile, "file", "f", "", "payload file; stdin when empty or -")
}
