package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vantage/internal/nfsmount"
	"github.com/agentic-research/vantage/internal/viewfs"
)

var serveMountpoint string

var serveCmd = &cobra.Command{
	Use:   "serve [viewdir]",
	Short: "Serve a directory of .view files as a read-only NFS filesystem",
	Long: `Serve exposes every .view file under viewdir as a regular file whose
content is the view's materialized bytes. Views materialize lazily on
first access and stay cached for the life of the server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := viewfs.New(args[0])
		if err != nil {
			return err
		}

		srv, err := nfsmount.NewServer(fs)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Close() }()

		fmt.Printf("Serving views from %s on nfs://localhost:%d/\n", args[0], srv.Port())

		if serveMountpoint != "" {
			if err := nfsmount.Mount(srv.Port(), serveMountpoint); err != nil {
				return err
			}
			fmt.Printf("Mounted at %s\n", serveMountpoint)
			defer func() { _ = nfsmount.Unmount(serveMountpoint) }()
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Println("Shutting down.")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveMountpoint, "mount", "m", "", "Mountpoint to attach the NFS export to")
	rootCmd.AddCommand(serveCmd)
}
