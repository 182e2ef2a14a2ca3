// crest-cli is a command-line wallet for the Crest chain: it manages
// encrypted HD wallets, builds and signs transfer and staking
// transactions, and submits them through a node and the transaction
// query service.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/crest-chain/crest-wallet/internal/pipeline"
	"github.com/crest-chain/crest-wallet/internal/rpcclient"
	"github.com/crest-chain/crest-wallet/internal/storage"
	"github.com/crest-chain/crest-wallet/internal/wallet"
	"github.com/crest-chain/crest-wallet/pkg/tx"
	"github.com/crest-chain/crest-wallet/pkg/types"
)

const coinDecimals = 8

// env carries the resolved global configuration into subcommands.
type env struct {
	rpcURL    string
	oracleURL string
	dataDir   string
	network   types.Network
	netName   string
}

// keystoreDir returns the keystore path: <datadir>/<network>/keystore
func (e *env) keystoreDir() string {
	return filepath.Join(e.dataDir, e.netName, "keystore")
}

// stateDir returns the local state path: <datadir>/<network>/state
func (e *env) stateDir() string {
	return filepath.Join(e.dataDir, e.netName, "state")
}

func (e *env) node() *rpcclient.NodeClient {
	return rpcclient.NewNodeClient(rpcclient.New(e.rpcURL).AsCaller())
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	e := &env{
		rpcURL:    "http://127.0.0.1:26659",
		oracleURL: "ws://127.0.0.1:26660/encrypt",
		dataDir:   defaultDataDir(),
		netName:   "mainnet",
	}

	// Scan for global flags before the subcommand.
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			e.rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			e.rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		case args[0] == "--oracle" && len(args) > 1:
			e.oracleURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--oracle="):
			e.oracleURL = args[0][len("--oracle="):]
			args = args[1:]
		case args[0] == "--datadir" && len(args) > 1:
			e.dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			e.dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			e.netName = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			e.netName = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	network, err := types.ParseNetwork(e.netName)
	if err != nil {
		fatal("%v", err)
	}
	e.network = network

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "status":
		cmdStatus(e)
	case "wallet":
		cmdWallet(e, cmdArgs)
	case "balance":
		cmdBalance(e, cmdArgs)
	case "send":
		cmdSend(e, cmdArgs)
	case "staked-state":
		cmdStakedState(e, cmdArgs)
	case "unbond":
		cmdUnbond(e, cmdArgs)
	case "withdraw":
		cmdWithdraw(e, cmdArgs)
	case "unjail":
		cmdUnjail(e, cmdArgs)
	case "join":
		cmdJoin(e, cmdArgs)
	case "fee":
		cmdFee(cmdArgs)
	case "pending":
		cmdPending(e, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crest-cli [global flags] <command> [flags]

Global flags:
  --rpc <url>         Node RPC endpoint (default: http://127.0.0.1:26659)
  --oracle <url>      Transaction query service websocket (default: ws://127.0.0.1:26660/encrypt)
  --datadir <path>    Data directory (default: ~/.crest)
  --network <net>     mainnet (default), testnet or devnet

Commands:
  status                          Show node status
  balance --wallet <w>            Show spendable balance of a wallet

  wallet create --name <n>        Create a new wallet
  wallet import --name <n> --mnemonic "..."
                                  Import wallet from mnemonic
  wallet list                     List wallets
  wallet address --wallet <w>     List wallet addresses
  wallet new-address --wallet <w> [--kind transfer|staking|view]
                                  Derive the next address on a kind branch

  send --wallet <w> --to <addr> --amount <amt> [--view-key <addr>]...
       [--no-broadcast]           Build, sign, encrypt and submit a transfer

  staked-state <staking-addr>     Show on-chain staking account
  unbond --wallet <w> --amount <amt>
                                  Move bonded stake to unbonded
  withdraw --wallet <w> --to <transfer-addr> [--view-key <addr>]...
                                  Withdraw unbonded stake to a UTXO
  unjail --wallet <w>             Request unjail of the staking account
  join --wallet <w> --moniker <name> --validator-key <base64>
       [--contact <email>] [--keypackage <file>]
                                  Register as a council node

  fee --constant <c> --coefficient <k> --size <bytes> [--encrypted]
                                  Estimate the fee for a payload size
  pending retry                   Re-broadcast cached ciphertexts
`)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crest"
	}
	return filepath.Join(home, ".crest")
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(e *env) {
	status, err := e.node().Status(context.Background())
	if err != nil {
		fatal("chain_status: %v", err)
	}

	fmt.Printf("Network:  %s\n", status.NetworkID)
	fmt.Printf("Height:   %d\n", status.BlockHeight)
	fmt.Printf("Syncing:  %v\n", status.Syncing)
}

// ── wallet ──────────────────────────────────────────────────────────────

func cmdWallet(e *env, args []string) {
	if len(args) < 1 {
		fatal("Usage: crest-cli wallet <create|import|list|address|new-address> [flags]")
	}

	switch args[0] {
	case "create":
		cmdWalletCreate(e, args[1:])
	case "import":
		cmdWalletImport(e, args[1:])
	case "list":
		cmdWalletList(e)
	case "address":
		cmdWalletAddress(e, args[1:])
	case "new-address":
		cmdWalletNewAddress(e, args[1:])
	default:
		fatal("Unknown wallet command: %s\nUsage: crest-cli wallet <create|import|list|address|new-address> [flags]", args[0])
	}
}

func cmdWalletCreate(e *env, args []string) {
	fs := flag.NewFlagSet("wallet create", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	fs.Parse(args)

	if *name == "" {
		fatal("Usage: crest-cli wallet create --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	password := readPasswordConfirmed()

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("create keystore: %v", err)
	}
	if err := ks.Create(*name, seed, password, wallet.DefaultSealParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	// Record the initial address on each kind branch.
	addrs := recordInitialAccounts(e, ks, *name, seed)
	wallet.Zeroize(seed)

	fmt.Printf("\nWallet created: %s\n", *name)
	fmt.Printf("Transfer address: %s\n", addrs[types.KindTransfer])
	fmt.Printf("Staking address:  %s\n", addrs[types.KindStaking])
	fmt.Printf("View key:         %s\n", addrs[types.KindView])
}

func cmdWalletImport(e *env, args []string) {
	fs := flag.NewFlagSet("wallet import", flag.ExitOnError)
	name := fs.String("name", "", "Wallet name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (12-24 words)")
	fs.Parse(args)

	if *name == "" || *mnemonic == "" {
		fatal("Usage: crest-cli wallet import --name <name> --mnemonic \"word1 word2 ...\"")
	}

	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	password := readPasswordConfirmed()

	seed, err := wallet.SeedFromMnemonic(*mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("create keystore: %v", err)
	}
	if err := ks.Create(*name, seed, password, wallet.DefaultSealParams()); err != nil {
		fatal("create wallet: %v", err)
	}

	addrs := recordInitialAccounts(e, ks, *name, seed)
	wallet.Zeroize(seed)

	fmt.Printf("Wallet imported: %s\n", *name)
	fmt.Printf("Transfer address: %s\n", addrs[types.KindTransfer])
}

// recordInitialAccounts derives index 0 on every kind branch and stores the
// account metadata.
func recordInitialAccounts(e *env, ks *wallet.Keystore, name string, seed []byte) map[types.AddressKind]string {
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}

	labels := map[types.AddressKind]string{
		types.KindStaking:  "Staking",
		types.KindTransfer: "Default",
		types.KindView:     "View",
	}
	addrs := map[types.AddressKind]string{}
	for _, kind := range []types.AddressKind{types.KindStaking, types.KindTransfer, types.KindView} {
		printed := deriveAddress(e, master, kind, 0)
		if err := ks.AddAccount(name, wallet.AccountEntry{
			Kind:    kind,
			Index:   0,
			Name:    labels[kind],
			Address: printed,
		}); err != nil {
			fatal("add account: %v", err)
		}
		addrs[kind] = printed
	}
	return addrs
}

func deriveAddress(e *env, master *wallet.HDKey, kind types.AddressKind, idx uint32) string {
	hdKey, err := master.DeriveAccountKey(0, kind, idx)
	if err != nil {
		fatal("derive key: %v", err)
	}
	kp, err := hdKey.KeyPair(kind)
	if err != nil {
		fatal("derive key pair: %v", err)
	}
	defer kp.Zero()
	printed, err := kp.PrintedAddress(e.network)
	if err != nil {
		fatal("encode address: %v", err)
	}
	return printed
}

func cmdWalletList(e *env) {
	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	names, err := ks.List()
	if err != nil {
		fatal("list wallets: %v", err)
	}

	if len(names) == 0 {
		fmt.Println("No wallets found.")
		return
	}

	for _, name := range names {
		fmt.Println(name)
	}
}

func cmdWalletAddress(e *env, args []string) {
	fs := flag.NewFlagSet("wallet address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: crest-cli wallet address --wallet <name>")
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	accounts, err := ks.ListAccounts(*walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No addresses found.")
		return
	}

	for _, acct := range accounts {
		fmt.Printf("  [%s %d] %s\n", kindName(acct.Kind), acct.Index, acct.Address)
	}
}

func cmdWalletNewAddress(e *env, args []string) {
	fs := flag.NewFlagSet("wallet new-address", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	kindStr := fs.String("kind", "transfer", "Address kind: transfer, staking or view")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: crest-cli wallet new-address --wallet <name> [--kind transfer|staking|view]")
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		fatal("%v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}

	seed, err := ks.Load(*walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	wallet.Zeroize(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}

	nextIdx, err := ks.NextIndex(*walletName, kind)
	if err != nil {
		fatal("next index: %v", err)
	}

	printed := deriveAddress(e, master, kind, nextIdx)
	if err := ks.AddAccount(*walletName, wallet.AccountEntry{
		Kind:    kind,
		Index:   nextIdx,
		Name:    fmt.Sprintf("%s %d", kindName(kind), nextIdx),
		Address: printed,
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("New %s address [%d]: %s\n", kindName(kind), nextIdx, printed)
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(e *env, args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: crest-cli balance --wallet <name>")
	}

	utxos := walletUTXOs(e, *walletName)
	bal := wallet.SumUTXOs(utxos)

	fmt.Printf("Wallet:    %s\n", *walletName)
	fmt.Printf("UTXOs:     %d\n", len(utxos))
	fmt.Printf("Spendable: %s CREST\n", formatAmount(bal.Confirmed))
}

// walletUTXOs fetches the spendable outputs of every transfer address the
// wallet has recorded.
func walletUTXOs(e *env, walletName string) []wallet.UTXO {
	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	accounts, err := ks.ListAccounts(walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}

	node := e.node()
	var utxos []wallet.UTXO
	for _, acct := range accounts {
		if acct.Kind != types.KindTransfer {
			continue
		}
		unspent, err := node.ListUnspent(context.Background(), e.network, acct.Address)
		if err != nil {
			fatal("list unspent for %s: %v", acct.Address, err)
		}
		for _, u := range unspent {
			utxos = append(utxos, wallet.UTXO{
				Outpoint: u.Outpoint,
				Owner:    u.Owner,
				Value:    u.Amount,
			})
		}
	}
	return utxos
}

// ── send ────────────────────────────────────────────────────────────────

func cmdSend(e *env, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	toAddr := fs.String("to", "", "Recipient transfer address")
	amountStr := fs.String("amount", "", "Amount to send (e.g. 1.5)")
	feeConst := fs.String("fee-constant", "1.1", "Linear fee constant (milli-units)")
	feeCoeff := fs.String("fee-coefficient", "1.25", "Linear fee coefficient (milli-units per byte)")
	noBroadcast := fs.Bool("no-broadcast", false, "Encrypt and cache without broadcasting")
	var viewKeys multiFlag
	fs.Var(&viewKeys, "view-key", "View key to attach (repeatable)")
	fs.Parse(args)

	if *walletName == "" || *toAddr == "" || *amountStr == "" {
		fatal("Usage: crest-cli send --wallet <name> --to <addr> --amount <amt> [--view-key <addr>]...")
	}

	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	recipient, err := types.DecodeAddressFor(*toAddr, e.network, types.KindTransfer)
	if err != nil {
		fatal("invalid recipient address: %v", err)
	}

	fee, err := tx.NewLinearFee(*feeConst, *feeCoeff)
	if err != nil {
		fatal("invalid fee parameters: %v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	seed, err := ks.Load(*walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}
	hd, err := wallet.NewMasterKey(seed)
	wallet.Zeroize(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}

	// Fund target: amount plus a fee reserve sized from a rough upper
	// bound on the final encrypted payload.
	utxos := walletUTXOs(e, *walletName)
	feeReserve := fee.EstimateAfterEncrypt(roughTransferSize(len(utxos), 2, len(viewKeys)))
	target := amount + feeReserve
	if target < amount {
		fatal("amount too large")
	}
	sel, err := wallet.SelectCoins(utxos, target)
	if err != nil {
		fatal("coin selection: %v", err)
	}

	// Build the transfer: recipient output plus change back to us.
	b := tx.NewBuilder(e.network)
	for _, u := range sel.Inputs {
		if err := b.AddInput(u.Outpoint.TxID, u.Outpoint.Index, u.Owner, u.Value); err != nil {
			fatal("add input: %v", err)
		}
	}
	if err := b.AddOutput(recipient, amount); err != nil {
		fatal("add output: %v", err)
	}
	change := sel.Total - amount - feeReserve
	if change > 0 {
		changeAddr := sel.Inputs[0].Owner
		if err := b.AddOutput(changeAddr, change); err != nil {
			fatal("add change output: %v", err)
		}
	}
	for _, vk := range viewKeys {
		view, err := types.DecodeAddressFor(vk, e.network, types.KindView)
		if err != nil {
			fatal("invalid view key %s: %v", vk, err)
		}
		if err := b.AddViewKey(view); err != nil {
			fatal("add view key: %v", err)
		}
	}

	// Sign each input with the key owning it.
	signInputs(e, hd, ks, *walletName, b, sel.Inputs)

	signed, err := b.Complete()
	if err != nil {
		fatal("complete transaction: %v", err)
	}

	// Encrypt and submit.
	store, err := storage.NewBadger(e.stateDir())
	if err != nil {
		fatal("open local state: %v", err)
	}
	defer store.Close()

	p := pipeline.New(
		pipeline.NewWSOracle(e.oracleURL),
		e.node(),
		storage.NewPrefixDB(store, []byte("pipeline/")),
	)

	res, err := p.SubmitTransfer(context.Background(), signed, pipeline.SubmitOptions{
		Broadcast: !*noBroadcast,
		Progress: func(current, start, end uint64) bool {
			if end > 0 {
				fmt.Fprintf(os.Stderr, "\rEncrypting... %d/%d", current, end)
			}
			return true
		},
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("submit: %v", err)
	}

	fmt.Printf("Submitted: %s\n", res.ID)
	fmt.Printf("  Amount:  %s CREST\n", formatAmount(amount))
	fmt.Printf("  Fee:     %s CREST (reserved)\n", formatAmount(feeReserve))
	if !res.Broadcast {
		fmt.Println("  Ciphertext cached; run 'crest-cli pending retry' to broadcast.")
	}
}

// signInputs signs every builder input with the wallet key owning it.
func signInputs(e *env, master *wallet.HDKey, ks *wallet.Keystore, walletName string, b *tx.Builder, inputs []wallet.UTXO) {
	accounts, err := ks.ListAccounts(walletName)
	if err != nil {
		fatal("list accounts: %v", err)
	}

	// Map printed address -> derivation index.
	indexByAddr := map[string]uint32{}
	for _, acct := range accounts {
		if acct.Kind == types.KindTransfer {
			indexByAddr[acct.Address] = acct.Index
		}
	}

	for i, u := range inputs {
		printed, err := u.Owner.Encode(e.network)
		if err != nil {
			fatal("encode owner address: %v", err)
		}
		idx, ok := indexByAddr[printed]
		if !ok {
			fatal("no key for input owner %s", printed)
		}
		hdKey, err := master.DeriveAccountKey(0, types.KindTransfer, idx)
		if err != nil {
			fatal("derive key: %v", err)
		}
		kp, err := hdKey.KeyPair(types.KindTransfer)
		if err != nil {
			fatal("derive key pair: %v", err)
		}
		if err := b.SignInput(kp, i); err != nil {
			kp.Zero()
			fatal("sign input %d: %v", i, err)
		}
		kp.Zero()
	}
}

// roughTransferSize over-approximates the wire size of a transfer for fee
// reservation before the exact payload exists.
func roughTransferSize(nInputs, nOutputs, nViewKeys int) int {
	const (
		inputSize   = 32 + 2 + 32 + 8 + 4 + 64 + 33
		outputSize  = 32 + 8
		viewKeySize = 33
	)
	return 1 + 4 + nInputs*inputSize + 4 + nOutputs*outputSize + 4 + nViewKeys*viewKeySize
}

// ── staking ─────────────────────────────────────────────────────────────

func cmdStakedState(e *env, args []string) {
	if len(args) < 1 {
		fatal("Usage: crest-cli staked-state <staking-address>")
	}

	state, err := e.node().GetStakedState(context.Background(), args[0])
	if err != nil {
		fatal("staking_state: %v", err)
	}

	fmt.Printf("Address:       %s\n", args[0])
	fmt.Printf("Nonce:         %d\n", state.Nonce)
	fmt.Printf("Bonded:        %s CREST\n", formatAmount(state.Bonded))
	fmt.Printf("Unbonded:      %s CREST\n", formatAmount(state.Unbonded))
	if state.UnbondedFrom > 0 {
		from := time.Unix(int64(state.UnbondedFrom), 0).UTC()
		fmt.Printf("Unbonded from: %s\n", from.Format("2006-01-02 15:04:05 UTC"))
	}
}

// stakingContext loads the wallet's staking key and its on-chain state.
func stakingContext(e *env, walletName string) (*wallet.HDWallet, *types.StakedState, string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(e.keystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	seed, err := ks.Load(walletName, password)
	if err != nil {
		fatal("load wallet: %v", err)
	}
	master, err := wallet.NewMasterKey(seed)
	wallet.Zeroize(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}

	w := wallet.WrapMaster(master)
	addr, err := w.Address(e.network, types.KindStaking, 0)
	if err != nil {
		fatal("derive staking address: %v", err)
	}

	state, err := e.node().GetStakedState(context.Background(), addr)
	if err != nil {
		fatal("staking_state: %v", err)
	}
	return w, state, addr
}

func submitStaking(e *env, signed []byte) {
	store, err := storage.NewBadger(e.stateDir())
	if err != nil {
		fatal("open local state: %v", err)
	}
	defer store.Close()

	p := pipeline.New(
		pipeline.NewWSOracle(e.oracleURL),
		e.node(),
		storage.NewPrefixDB(store, []byte("pipeline/")),
	)
	res, err := p.SubmitStaking(context.Background(), signed)
	if err != nil {
		fatal("submit: %v", err)
	}
	fmt.Printf("Submitted: %s\n", res.ID)
}

func cmdUnbond(e *env, args []string) {
	fs := flag.NewFlagSet("unbond", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	amountStr := fs.String("amount", "", "Amount to unbond (e.g. 1000)")
	fs.Parse(args)

	if *walletName == "" || *amountStr == "" {
		fatal("Usage: crest-cli unbond --wallet <name> --amount <amt>")
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}

	w, state, addr := stakingContext(e, *walletName)
	if state.Bonded < amount {
		fatal("bonded balance %s is less than %s", formatAmount(state.Bonded), formatAmount(amount))
	}

	kp, err := w.Derive(types.KindStaking, 0)
	if err != nil {
		fatal("derive staking key: %v", err)
	}
	defer kp.Zero()

	signed, err := tx.Unbond(e.network, state.Nonce, kp, kp.Address(), amount)
	if err != nil {
		fatal("build unbond: %v", err)
	}

	submitStaking(e, signed)
	fmt.Printf("  Account: %s\n", addr)
	fmt.Printf("  Amount:  %s CREST\n", formatAmount(amount))
	fmt.Println("\nUnbonded coins become withdrawable after the unbonding period.")
}

func cmdWithdraw(e *env, args []string) {
	fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	toAddr := fs.String("to", "", "Destination transfer address")
	var viewKeys multiFlag
	fs.Var(&viewKeys, "view-key", "View key to attach (repeatable)")
	fs.Parse(args)

	if *walletName == "" || *toAddr == "" {
		fatal("Usage: crest-cli withdraw --wallet <name> --to <transfer-addr> [--view-key <addr>]...")
	}

	to, err := types.DecodeAddressFor(*toAddr, e.network, types.KindTransfer)
	if err != nil {
		fatal("invalid destination address: %v", err)
	}
	var views []types.Address
	for _, vk := range viewKeys {
		view, err := types.DecodeAddressFor(vk, e.network, types.KindView)
		if err != nil {
			fatal("invalid view key %s: %v", vk, err)
		}
		views = append(views, view)
	}

	w, state, addr := stakingContext(e, *walletName)
	if state.Unbonded == 0 {
		fatal("account %s has no unbonded balance", addr)
	}

	kp, err := w.Derive(types.KindStaking, 0)
	if err != nil {
		fatal("derive staking key: %v", err)
	}
	defer kp.Zero()

	signed, err := tx.Withdraw(e.network, state, kp, to, views)
	if err != nil {
		fatal("build withdraw: %v", err)
	}

	submitStaking(e, signed)
	fmt.Printf("  Withdrawn: %s CREST\n", formatAmount(state.Unbonded))
	fmt.Printf("  To:        %s\n", *toAddr)
}

func cmdUnjail(e *env, args []string) {
	fs := flag.NewFlagSet("unjail", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	fs.Parse(args)

	if *walletName == "" {
		fatal("Usage: crest-cli unjail --wallet <name>")
	}

	w, state, addr := stakingContext(e, *walletName)

	kp, err := w.Derive(types.KindStaking, 0)
	if err != nil {
		fatal("derive staking key: %v", err)
	}
	defer kp.Zero()

	signed, err := tx.Unjail(e.network, state.Nonce, kp, kp.Address())
	if err != nil {
		fatal("build unjail: %v", err)
	}

	submitStaking(e, signed)
	fmt.Printf("  Account: %s\n", addr)
}

func cmdJoin(e *env, args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Wallet name")
	moniker := fs.String("moniker", "", "Validator display name")
	contact := fs.String("contact", "", "Operator contact (email)")
	validatorKey := fs.String("validator-key", "", "Base64 ed25519 consensus public key")
	keyPackageFile := fs.String("keypackage", "", "Path to the attestation key package")
	fs.Parse(args)

	if *walletName == "" || *moniker == "" || *validatorKey == "" {
		fatal("Usage: crest-cli join --wallet <name> --moniker <name> --validator-key <base64> [--contact <email>] [--keypackage <file>]")
	}

	var keyPackage []byte
	if *keyPackageFile != "" {
		data, err := os.ReadFile(*keyPackageFile)
		if err != nil {
			fatal("read key package: %v", err)
		}
		// Key packages are distributed base64-encoded; accept raw too.
		if decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data))); err == nil {
			keyPackage = decoded
		} else {
			keyPackage = data
		}
	}

	w, state, addr := stakingContext(e, *walletName)

	kp, err := w.Derive(types.KindStaking, 0)
	if err != nil {
		fatal("derive staking key: %v", err)
	}
	defer kp.Zero()

	signed, err := tx.NodeJoin(e.network, state.Nonce, kp, kp.Address(),
		*moniker, *contact, *validatorKey, keyPackage)
	if err != nil {
		fatal("build join: %v", err)
	}

	submitStaking(e, signed)
	fmt.Printf("  Account: %s\n", addr)
	fmt.Printf("  Moniker: %s\n", *moniker)
	fmt.Println("\nThe node joins the council once this transaction is confirmed.")
}

// ── fee ─────────────────────────────────────────────────────────────────

func cmdFee(args []string) {
	fs := flag.NewFlagSet("fee", flag.ExitOnError)
	constant := fs.String("constant", "1.1", "Linear fee constant (milli-units)")
	coefficient := fs.String("coefficient", "1.25", "Linear fee coefficient (milli-units per byte)")
	size := fs.Int("size", 0, "Payload size in bytes")
	encrypted := fs.Bool("encrypted", false, "Account for encryption overhead")
	fs.Parse(args)

	if *size <= 0 {
		fatal("Usage: crest-cli fee --constant <c> --coefficient <k> --size <bytes> [--encrypted]")
	}

	fee, err := tx.NewLinearFee(*constant, *coefficient)
	if err != nil {
		fatal("invalid fee parameters: %v", err)
	}

	var units uint64
	if *encrypted {
		units = fee.EstimateAfterEncrypt(*size)
	} else {
		units = fee.Estimate(*size)
	}
	fmt.Printf("Fee: %d base units\n", units)
}

// ── pending ─────────────────────────────────────────────────────────────

func cmdPending(e *env, args []string) {
	if len(args) < 1 || args[0] != "retry" {
		fatal("Usage: crest-cli pending retry")
	}

	store, err := storage.NewBadger(e.stateDir())
	if err != nil {
		fatal("open local state: %v", err)
	}
	defer store.Close()

	p := pipeline.New(
		pipeline.NewWSOracle(e.oracleURL),
		e.node(),
		storage.NewPrefixDB(store, []byte("pipeline/")),
	)

	sent, err := p.RetryBroadcast(context.Background())
	if err != nil {
		fatal("retry: %v (%d sent)", err, sent)
	}
	if sent == 0 {
		fmt.Println("Nothing pending.")
		return
	}
	fmt.Printf("Broadcast %d pending transaction(s).\n", sent)
}

// ── helpers ─────────────────────────────────────────────────────────────

// multiFlag collects repeated string flags.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func parseKind(s string) (types.AddressKind, error) {
	switch s {
	case "staking":
		return types.KindStaking, nil
	case "transfer":
		return types.KindTransfer, nil
	case "view":
		return types.KindView, nil
	}
	return 0, fmt.Errorf("unknown address kind %q (want transfer, staking or view)", s)
}

func kindName(kind types.AddressKind) string {
	switch kind {
	case types.KindStaking:
		return "staking"
	case types.KindTransfer:
		return "transfer"
	case types.KindView:
		return "view"
	}
	return "unknown"
}

// formatAmount converts base units to a human-readable decimal string.
func formatAmount(units uint64) string {
	whole := units / types.CarsonsPerCoin
	frac := units % types.CarsonsPerCoin
	return fmt.Sprintf("%d.%08d", whole, frac)
}

// parseAmount converts a decimal string to base units.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > coinDecimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", coinDecimals)
		}
		fracStr = fracStr + strings.Repeat("0", coinDecimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	if whole > math.MaxUint64/types.CarsonsPerCoin {
		return 0, fmt.Errorf("amount too large")
	}
	result := whole * types.CarsonsPerCoin
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}

	return result + frac, nil
}

func readPasswordConfirmed() []byte {
	password, err := readPassword("Enter password: ")
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
	return password
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

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
