package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telekom/failed-job-deactivator/pkg/config"
	"github.com/telekom/failed-job-deactivator/pkg/mail"
	"github.com/telekom/failed-job-deactivator/pkg/output"
)

func NewTransportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transport",
		Short: "Show the mail transport resolved from the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(rt.outputFormat)
			if err != nil {
				return err
			}
			cfg, err := rt.Config()
			if err != nil {
				return err
			}

			info := resolveTransport(cfg, rt.Logger()).Info()
			if format == output.FormatTable {
				output.WriteTransportTable(rt.Writer(), info)
				return nil
			}
			return output.WriteObject(rt.Writer(), format, info)
		},
	}
}

// resolveTransport resolves the mail transport and logs what was resolved,
// never the password.
func resolveTransport(cfg *config.Config, log *zap.SugaredLogger) *mail.TransportConfig {
	tc := mail.Resolve(cfg)
	info := tc.Info()
	if !info.Enabled {
		log.Debugw("Mail transport not configured, notifications disabled",
			"hostSet", info.Host != "",
			"replyToSet", info.ReplyTo != "")
		return tc
	}
	log.Debugw("Resolved mail transport",
		"host", info.Host,
		"port", info.Port,
		"ssl", info.SSL,
		"auth", info.AuthUser != "",
		"replyTo", info.ReplyTo,
		"insecureSkipVerify", info.InsecureSkipVerify)
	return tc
}
