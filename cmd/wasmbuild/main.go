// Command wasmbuild assembles a demonstration WebAssembly module using the
// wasmbuild package and a dependency-free reference host, printing the
// resulting bytes (or a forensic dump, with --dump) to stdout. It exists to
// exercise the builder end-to-end from the command line; a production
// jiterpreter embeds the package directly and supplies its own host.Host.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmbuild/wasmbuild"
	"github.com/wasmbuild/wasmbuild/host/refhost"
	"github.com/wasmbuild/wasmbuild/internal/funcreg"
	iopts "github.com/wasmbuild/wasmbuild/internal/options"
	"github.com/wasmbuild/wasmbuild/internal/wasmbin"
)

var (
	dump          bool
	useConstants  bool
	constantSlots int
)

var rootCmd = &cobra.Command{
	Use:   "wasmbuild",
	Short: "Assemble a demonstration WebAssembly module",
	Long: `wasmbuild assembles a small WebAssembly module exercising the type,
import and function registries, then prints the module bytes (or, with
--dump, a forensic opcode dump of each function body) to stdout.`,
	RunE: runDemo,
}

func init() {
	rootCmd.Flags().BoolVar(&dump, "dump", false, "print a forensic opcode dump instead of the raw module bytes")
	rootCmd.Flags().BoolVar(&useConstants, "jiterpreter-use-constants", true, "enable the constant-slot mechanism for pointer literals")
	rootCmd.Flags().IntVar(&constantSlots, "constant-slots", 4, "capacity of the constant slot table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	log := logrus.NewEntry(logrus.StandardLogger())
	h := refhost.New(nil)
	b := wasmbuild.New(h, wasmbuild.WithLogger(log), wasmbuild.WithConstantSlots(constantSlots))

	if err := b.ApplyOptions(map[iopts.Key]any{iopts.KeyUseConstants: useConstants}); err != nil {
		return err
	}

	i32 := wasmbin.ValTypeI32
	if _, err := b.DefineType("addType", []wasmbin.ValType{i32, i32}, &i32, false); err != nil {
		return err
	}
	params := []funcreg.Decl{{Type: i32}, {Type: i32}}
	if _, err := b.DefineFunction("add", "addType", true, params, nil, func(b *wasmbuild.Builder) error {
		if err := b.Arg(0); err != nil {
			return err
		}
		if err := b.Arg(1); err != nil {
			return err
		}
		return b.Op(wasmbin.OpI32Add)
	}); err != nil {
		return err
	}

	module, err := b.EmitModule()
	if err != nil {
		return err
	}

	if dump {
		out, err := b.DumpFunction("add")
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	_, err = os.Stdout.Write(module)
	return err
}
