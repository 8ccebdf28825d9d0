package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"esign/internal/fingerprint"
	"esign/internal/proof"
	"esign/internal/signer"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "esignctl",
		Short:         "Offline tooling for the e-sign ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newKeygenCmd(), newFingerprintCmd(), newTokenCmd())
	return root
}

func newKeygenCmd() *cobra.Command {
	var (
		outDir string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a P-256 signing key pair",
		Long: `Generate a P-256 key pair and write private.pem (SEC 1) and public.pem (PKIX).

Example:
  esignctl keygen --out keys`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := signer.GenerateKeyPair()
			if err != nil {
				return err
			}
			priv, err := kp.MarshalPrivatePEM()
			if err != nil {
				return err
			}
			pub, err := kp.MarshalPublicPEM()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o700); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}
			privPath := filepath.Join(outDir, "private.pem")
			pubPath := filepath.Join(outDir, "public.pem")
			if !force {
				for _, p := range []string{privPath, pubPath} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					}
				}
			}
			if err := os.WriteFile(privPath, priv, 0o600); err != nil {
				return err
			}
			if err := os.WriteFile(pubPath, pub, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\nwrote %s\n", privPath, pubPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "keys", "output directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	return cmd
}

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <file>",
		Short: "Print the canonical content fingerprint of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fp, err := fingerprint.New().Fingerprint(content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp.String())
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and check proof tokens",
	}

	decode := &cobra.Command{
		Use:   "decode <token>",
		Short: "Print the fields carried by a proof token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := proof.Decode(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(t)
		},
	}

	var pubPath, file string
	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a token signature against a public key, and optionally a document",
		Long: `Check that the token's signature was made by the given public key over the
token's fingerprint. With --file, the document's fingerprint must match too.
No ledger is consulted, so a revoked or unknown record still verifies here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := proof.Decode(args[0])
			if err != nil {
				return err
			}
			fp, err := fingerprint.Parse(t.Fingerprint)
			if err != nil {
				return fmt.Errorf("%w: %v", proof.ErrInvalidToken, err)
			}

			data, err := os.ReadFile(pubPath)
			if err != nil {
				return err
			}
			pub, err := signer.ParsePublicKeyPEM(data)
			if err != nil {
				return err
			}
			kp, err := signer.NewVerifyOnly(pub)
			if err != nil {
				return err
			}
			if !kp.VerifyEncoded(fp, t.Signature) {
				return errSignatureInvalid
			}

			if file != "" {
				content, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				got, err := fingerprint.New().Fingerprint(content)
				if err != nil {
					return err
				}
				if got != fp {
					return errFingerprintMismatch
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK record %d\n", t.ID)
			return nil
		},
	}
	verify.Flags().StringVar(&pubPath, "pub", "keys/public.pem", "PEM public key")
	verify.Flags().StringVar(&file, "file", "", "document the token should match")

	cmd.AddCommand(decode, verify)
	return cmd
}

var (
	errSignatureInvalid    = errors.New("signature does not verify")
	errFingerprintMismatch = errors.New("document does not match token fingerprint")
)
