package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"surety-node/crypto"
)

var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage account keys",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate [name]",
	Short: "Generate a key and print its address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file := keyFile(args[0])
		if _, err := os.Stat(file); err == nil {
			return fmt.Errorf("key %s already exists", args[0])
		}
		privKey, err := loadOrGenKey(file)
		if err != nil {
			return err
		}
		return printAddress(cmd, args[0], privKey)
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Print the address of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		privKey, err := crypto.LoadKey(keyFile(args[0]))
		if err != nil {
			return err
		}
		return printAddress(cmd, args[0], privKey)
	},
}

func init() {
	KeysCmd.AddCommand(keysGenerateCmd)
	KeysCmd.AddCommand(keysShowCmd)
}

func keyFile(name string) string {
	return filepath.Join(rootDir, "keys", name+".key")
}

func loadOrGenKey(file string) ([]byte, error) {
	privKey, err := crypto.LoadKey(file)
	if err == nil {
		return privKey, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	privKey, _, err = crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, err
	}
	return privKey, crypto.SaveKey(file, privKey)
}

func addressOf(privKey []byte) (common.Address, error) {
	pubKey, err := crypto.PubKey(privKey)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.Address(pubKey)
}

func printAddress(cmd *cobra.Command, name string, privKey []byte) error {
	address, err := addressOf(privKey)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, address.Hex())
	return err
}
