// tangle-cli is a command-line client for the Tangle ledger: vault and
// address management, balance scanning and value transfers through a
// node's REST API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/anyong/tangleclient/config"
	"github.com/anyong/tangleclient/internal/bridge"
	"github.com/anyong/tangleclient/internal/log"
	"github.com/anyong/tangleclient/internal/nodeclient"
	"github.com/anyong/tangleclient/internal/wallet"
	"github.com/anyong/tangleclient/pkg/crypto"
	"github.com/anyong/tangleclient/pkg/output"
	"github.com/anyong/tangleclient/pkg/tx"
	"github.com/anyong/tangleclient/pkg/types"
)

// vaultDir returns the seed vault path: <datadir>/<network>/vault
func vaultDir(dataDir string, network config.NetworkType) string {
	return filepath.Join(dataDir, string(network), "vault")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	nodeURL := ""
	dataDir := defaultDataDir()
	network := config.Mainnet
	logLevel := "warn"

	// Scan for --node, --datadir, --network, and --log-level before the
	// subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--node" && len(args) > 1:
			nodeURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--node="):
			nodeURL = args[0][len("--node="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			network = config.NetworkType(args[1])
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = config.NetworkType(args[0][len("--network="):])
			args = args[1:]
		case args[0] == "--log-level" && len(args) > 1:
			logLevel = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			logLevel = args[0][len("--log-level="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if network != config.Mainnet && network != config.Testnet {
		fatal("unknown network %q (mainnet or testnet)", network)
	}
	types.SetAddressHRP(network.HRP())
	log.Init(logLevel, false)

	cfg := config.Default(network)
	if nodeURL != "" {
		cfg.NodeURL = nodeURL
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	vDir := vaultDir(dataDir, network)
	client := nodeclient.NewWithTimeout(cfg.NodeURL, cfg.NodeTimeout)
	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "mnemonic":
		cmdMnemonic(cmdArgs)
	case "vault":
		cmdVault(cmdArgs, vDir)
	case "address":
		cmdAddress(cmdArgs, vDir)
	case "balance":
		cmdBalance(client, cmdArgs, vDir, cfg)
	case "send":
		cmdSend(client, cmdArgs, vDir)
	case "output":
		cmdOutput(client, cmdArgs)
	case "milestone":
		cmdMilestone(client, cmdArgs)
	case "bridge":
		cmdBridge(client, cfg)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tangle-cli [global flags] <command> [flags]

Global flags:
  --node <url>        Node REST endpoint (default: http://127.0.0.1:14265)
  --datadir <path>    Data directory (default: ~/.tangleclient)
  --network <net>     mainnet (default) or testnet
  --log-level <lvl>   trace, debug, info, warn or error (default: warn)

Commands:
  mnemonic new                    Generate a 24-word mnemonic
  mnemonic seed                   Derive the hex seed from a mnemonic

  vault create --name <n>         Create a vault with a fresh seed
  vault import --name <n>         Import a vault from a mnemonic
  vault list                      List vaults
  vault delete --name <n>         Delete a vault

  address --vault <n> [--account <a>] [--internal] [--start <i>] [--count <c>]
                                  Derive and print addresses
  balance --vault <n> [--account <a>] [--gap <g>]
                                  Scan for funded addresses
  send --vault <n> --to <addr> --amount <units> [--account <a>]
                                  Send base tokens
  output <output_id>              Show an output
  milestone <index|id>            Show a milestone and its ledger changes
  bridge                          Serve bridge commands on stdin/stdout
`)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tangleclient"
	}
	return filepath.Join(home, ".tangleclient")
}

// ── mnemonic ────────────────────────────────────────────────────────────

func cmdMnemonic(args []string) {
	if len(args) < 1 {
		fatal("Usage: tangle-cli mnemonic <new|seed>")
	}

	switch args[0] {
	case "new":
		mnemonic, err := wallet.GenerateMnemonic()
		if err != nil {
			fatal("generate mnemonic: %v", err)
		}
		fmt.Println(mnemonic)
	case "seed":
		mnemonic, err := readLine("Mnemonic: ")
		if err != nil {
			fatal("read mnemonic: %v", err)
		}
		seed, err := wallet.SeedFromMnemonic(mnemonic, "")
		if err != nil {
			fatal("%v", err)
		}
		defer wallet.Zero(seed)
		fmt.Printf("%x\n", seed)
	default:
		fatal("Unknown mnemonic command: %s", args[0])
	}
}

// ── vault ───────────────────────────────────────────────────────────────

func cmdVault(args []string, vDir string) {
	if len(args) < 1 {
		fatal("Usage: tangle-cli vault <create|import|list|delete> [flags]")
	}

	switch args[0] {
	case "create":
		cmdVaultCreate(args[1:], vDir)
	case "import":
		cmdVaultImport(args[1:], vDir)
	case "list":
		cmdVaultList(vDir)
	case "delete":
		cmdVaultDelete(args[1:], vDir)
	default:
		fatal("Unknown vault command: %s", args[0])
	}
}

func cmdVaultCreate(args []string, vDir string) {
	fs := flag.NewFlagSet("vault create", flag.ExitOnError)
	name := fs.String("name", "", "Vault name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: tangle-cli vault create --name <n>")
	}

	// Generate the seed from a fresh mnemonic and show the mnemonic once
	// so the user can back it up.
	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}
	defer wallet.Zero(seed)

	storeVault(vDir, *name, seed)

	fmt.Printf("Vault %q created.\n\n", *name)
	fmt.Println("Recovery mnemonic (write it down, it is shown only once):")
	fmt.Printf("  %s\n", mnemonic)
}

func cmdVaultImport(args []string, vDir string) {
	fs := flag.NewFlagSet("vault import", flag.ExitOnError)
	name := fs.String("name", "", "Vault name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: tangle-cli vault import --name <n>")
	}

	mnemonic, err := readLine("Mnemonic: ")
	if err != nil {
		fatal("read mnemonic: %v", err)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("%v", err)
	}
	defer wallet.Zero(seed)

	storeVault(vDir, *name, seed)
	fmt.Printf("Vault %q imported.\n", *name)
}

func storeVault(vDir, name string, seed []byte) {
	vault, err := wallet.NewVault(vDir)
	if err != nil {
		fatal("open vault dir: %v", err)
	}

	password, err := readPassword("Vault password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	if err := vault.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create vault: %v", err)
	}
}

func cmdVaultList(vDir string) {
	vault, err := wallet.NewVault(vDir)
	if err != nil {
		fatal("open vault dir: %v", err)
	}
	names, err := vault.List()
	if err != nil {
		fatal("list vaults: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No vaults.")
		return
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

func cmdVaultDelete(args []string, vDir string) {
	fs := flag.NewFlagSet("vault delete", flag.ExitOnError)
	name := fs.String("name", "", "Vault name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: tangle-cli vault delete --name <n>")
	}

	vault, err := wallet.NewVault(vDir)
	if err != nil {
		fatal("open vault dir: %v", err)
	}
	if err := vault.Delete(*name); err != nil {
		fatal("delete vault: %v", err)
	}
	fmt.Printf("Vault %q deleted.\n", *name)
}

// unlockVault prompts for the password and returns the decrypted seed.
func unlockVault(vDir, name string) []byte {
	vault, err := wallet.NewVault(vDir)
	if err != nil {
		fatal("open vault dir: %v", err)
	}
	password, err := readPassword("Vault password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	seed, err := vault.Load(name, password)
	if err != nil {
		fatal("unlock vault: %v", err)
	}
	return seed
}

// ── address ─────────────────────────────────────────────────────────────

func cmdAddress(args []string, vDir string) {
	fs := flag.NewFlagSet("address", flag.ExitOnError)
	vaultName := fs.String("vault", "", "Vault name")
	account := fs.Uint("account", 0, "Account index")
	internal := fs.Bool("internal", false, "Derive change addresses")
	start := fs.Uint("start", 0, "First address index")
	count := fs.Uint("count", 1, "Number of addresses")
	fs.Parse(args)

	if *vaultName == "" {
		fatal("Usage: tangle-cli address --vault <n> [--account <a>] [--internal] [--start <i>] [--count <c>]")
	}

	seed := unlockVault(vDir, *vaultName)
	defer wallet.Zero(seed)

	change := uint32(wallet.ChangeExternal)
	if *internal {
		change = wallet.ChangeInternal
	}
	addrs, err := wallet.DeriveAddresses(seed, uint32(*account), change, uint32(*start), uint32(*count))
	if err != nil {
		fatal("derive addresses: %v", err)
	}
	for i, addr := range addrs {
		path := wallet.Path{Account: uint32(*account), Change: change, Index: uint32(*start) + uint32(i)}
		fmt.Printf("%-28s %s\n", path, addr)
	}
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(client *nodeclient.Client, args []string, vDir string, cfg *config.Config) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	vaultName := fs.String("vault", "", "Vault name")
	account := fs.Uint("account", 0, "Account index")
	gap := fs.Uint("gap", 20, "Gap limit")
	fs.Parse(args)

	if *vaultName == "" {
		fatal("Usage: tangle-cli balance --vault <n> [--account <a>] [--gap <g>]")
	}

	seed := unlockVault(vDir, *vaultName)
	defer wallet.Zero(seed)

	scanner := wallet.NewScanner(client, cfg.ScanConcurrency)
	result, err := scanner.Scan(context.Background(), seed, uint32(*account), 0, uint32(*gap))
	if err != nil {
		fatal("scan: %v", err)
	}

	for addr, amount := range result.Balances {
		fmt.Printf("%s  %d\n", addr, amount)
	}
	fmt.Printf("Total: %d\n", result.Total)
}

// ── send ────────────────────────────────────────────────────────────────

func cmdSend(client *nodeclient.Client, args []string, vDir string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	vaultName := fs.String("vault", "", "Vault name")
	toAddr := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount in base units")
	account := fs.Uint("account", 0, "Account index")
	gap := fs.Uint("gap", 20, "Gap limit for funding discovery")
	fs.Parse(args)

	if *vaultName == "" || *toAddr == "" || *amountStr == "" {
		fatal("Usage: tangle-cli send --vault <n> --to <addr> --amount <units>")
	}

	amount, err := strconv.ParseUint(*amountStr, 10, 64)
	if err != nil || amount == 0 {
		fatal("invalid amount %q", *amountStr)
	}
	recipient, err := types.ParseAddress(*toAddr)
	if err != nil {
		fatal("invalid recipient: %v", err)
	}

	seed := unlockVault(vDir, *vaultName)
	defer wallet.Zero(seed)

	ctx := context.Background()
	funding, paths, err := collectFunding(ctx, client, seed, uint32(*account), uint32(*gap))
	if err != nil {
		fatal("collect funding: %v", err)
	}
	if len(funding) == 0 {
		fatal("no spendable outputs found")
	}

	// Change goes to the next unused internal address.
	changePath := wallet.Path{Account: uint32(*account), Change: wallet.ChangeInternal, Index: nextIndex(paths, wallet.ChangeInternal)}
	_, changeAddr, err := wallet.Derive(seed, changePath)
	if err != nil {
		fatal("derive change address: %v", err)
	}

	target, err := output.NewBasicOutput(amount, []output.UnlockCondition{output.NewAddressUnlock(recipient)}, nil, nil)
	if err != nil {
		fatal("build target output: %v", err)
	}

	builder := tx.NewBuilder(changeAddr).AddTarget(target)
	for _, fo := range funding {
		builder.AddFunding(fo)
	}
	prepared, err := builder.Build()
	if err != nil {
		fatal("build transaction: %v", err)
	}

	keys, err := deriveInputKeys(seed, prepared.Inputs, paths)
	if err != nil {
		fatal("derive keys: %v", err)
	}
	payload, err := tx.SignPayload(prepared.Essence, keys)
	if err != nil {
		fatal("sign: %v", err)
	}

	messageID, err := client.SubmitPayload(ctx, payload)
	if err != nil {
		fatal("submit: %v", err)
	}

	fmt.Printf("Transaction: %s\n", payload.ID())
	fmt.Printf("Message:     %s\n", messageID)
}

// collectFunding walks both derivation branches up to the gap limit and
// returns every plain spendable output, plus the path controlling each
// funded address.
func collectFunding(ctx context.Context, client *nodeclient.Client, seed []byte, account, gapLimit uint32) ([]tx.FundingOutput, map[types.Address]wallet.Path, error) {
	var funding []tx.FundingOutput
	paths := make(map[types.Address]wallet.Path)

	for _, change := range []uint32{wallet.ChangeExternal, wallet.ChangeInternal} {
		zeroRun := uint32(0)
		for index := uint32(0); zeroRun < gapLimit; index++ {
			path := wallet.Path{Account: account, Change: change, Index: index}
			_, addr, err := wallet.Derive(seed, path)
			if err != nil {
				return nil, nil, err
			}
			paths[addr] = path

			ids, err := client.OutputsForAddress(ctx, addr)
			if err != nil {
				return nil, nil, err
			}
			if len(ids) == 0 {
				zeroRun++
				continue
			}
			zeroRun = 0
			for _, id := range ids {
				out, err := client.Output(ctx, id)
				if err != nil {
					return nil, nil, err
				}
				if !output.IsPlain(out) {
					continue
				}
				funding = append(funding, tx.FundingOutput{ID: id, Output: out, Address: addr})
			}
		}
	}
	return funding, paths, nil
}

// deriveInputKeys re-derives the key pair controlling each selected input.
func deriveInputKeys(seed []byte, inputs []tx.FundingOutput, paths map[types.Address]wallet.Path) (map[types.OutputID]*crypto.KeyPair, error) {
	keys := make(map[types.OutputID]*crypto.KeyPair, len(inputs))
	for _, in := range inputs {
		path, ok := paths[in.Address]
		if !ok {
			return nil, fmt.Errorf("no derivation path for input address %s", in.Address)
		}
		kp, _, err := wallet.Derive(seed, path)
		if err != nil {
			return nil, err
		}
		keys[in.ID] = kp
	}
	return keys, nil
}

// nextIndex returns one past the highest derived index on a branch.
func nextIndex(paths map[types.Address]wallet.Path, change uint32) uint32 {
	next := uint32(0)
	for _, p := range paths {
		if p.Change == change && p.Index+1 > next {
			next = p.Index + 1
		}
	}
	return next
}

// ── output ──────────────────────────────────────────────────────────────

func cmdOutput(client *nodeclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: tangle-cli output <output_id>")
	}

	id, err := types.ParseOutputID(args[0])
	if err != nil {
		fatal("invalid output id: %v", err)
	}
	out, err := client.Output(context.Background(), id)
	if err != nil {
		fatal("fetch output: %v", err)
	}
	data, err := output.MarshalOutput(out)
	if err != nil {
		fatal("encode output: %v", err)
	}
	var pretty map[string]interface{}
	json.Unmarshal(data, &pretty)
	formatted, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(formatted))
}

// ── milestone ───────────────────────────────────────────────────────────

func cmdMilestone(client *nodeclient.Client, args []string) {
	if len(args) < 1 {
		fatal("Usage: tangle-cli milestone <index|id>")
	}

	ctx := context.Background()
	var ms *nodeclient.Milestone
	var changes *nodeclient.UtxoChanges
	var err error

	// Try as index first (pure number).
	if index, perr := strconv.ParseUint(args[0], 10, 32); perr == nil {
		ms, err = client.MilestoneByIndex(ctx, uint32(index))
		if err == nil {
			changes, err = client.UtxoChangesByIndex(ctx, uint32(index))
		}
	} else {
		var id types.Hash
		id, err = types.HexToHash(args[0])
		if err != nil {
			fatal("invalid milestone id: %v", err)
		}
		ms, err = client.MilestoneByID(ctx, id)
		if err == nil {
			changes, err = client.UtxoChangesByID(ctx, id)
		}
	}
	if err != nil {
		fatal("fetch milestone: %v", err)
	}

	fmt.Printf("Index:     %d\n", ms.Index)
	fmt.Printf("ID:        %s\n", ms.ID)
	fmt.Printf("Timestamp: %d\n", ms.Timestamp)
	fmt.Printf("Created:   %d outputs\n", len(changes.Created))
	fmt.Printf("Consumed:  %d outputs\n", len(changes.Consumed))
}

// ── bridge ──────────────────────────────────────────────────────────────

// cmdBridge reads one JSON command per line from stdin and writes one
// JSON response per line to stdout, the transport used by language
// bindings that spawn the CLI as a subprocess.
func cmdBridge(client *nodeclient.Client, cfg *config.Config) {
	br := bridge.New(client, cfg.ScanConcurrency)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp := br.Dispatch(context.Background(), []byte(line))
		if err := encoder.Encode(resp); err != nil {
			fatal("write response: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fatal("read commands: %v", err)
	}
}

// ── Input helpers ───────────────────────────────────────────────────────

func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
