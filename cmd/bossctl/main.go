// Command bossctl drives a BOSS disk image through the same vfs.VFS
// operations the syscall table dispatches to (spec.md §4.6), without
// booting a kernel. It is the primary way to exercise SimpleFS end to end
// from the host (SPEC_FULL.md §3).
package main

import (
	"fmt"
	"os"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/fs/simplefs"
	"github.com/CezarPP/BOSS/vfs"
	"github.com/urfave/cli/v2"
)

// session owns one mounted disk image for the lifetime of a single
// bossctl invocation.
type session struct {
	dev *blockdev.FileDevice
	fs  *simplefs.SimpleFS
	vfs *vfs.VFS
}

func openSession(imagePath string) (*session, error) {
	dev, err := blockdev.OpenFile(imagePath)
	if err != nil {
		return nil, err
	}
	sfs := simplefs.New(dev)
	if err := sfs.Mount(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("mount: %w", err)
	}
	v := vfs.New()
	if errc := v.Mount("/", sfs); errc != vfs.ErrNone {
		sfs.Unmount()
		dev.Close()
		return nil, errc
	}
	return &session{dev: dev, fs: sfs, vfs: v}, nil
}

func (s *session) close() {
	s.fs.Unmount()
	s.dev.Sync()
	s.dev.Close()
}

func requireOk(r vfs.Result, verb string) error {
	if r.Err != vfs.ErrNone {
		return fmt.Errorf("%s: %w", verb, r.Err)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "bossctl",
		Usage: "inspect and mutate a BOSS disk image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "path to the BOSS disk image",
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{Name: "ls", Usage: "list the root directory", Action: cmdLs},
			{Name: "cat", Usage: "print a file's contents", ArgsUsage: "<path>", Action: cmdCat},
			{Name: "write", Usage: "write a host file into the image", ArgsUsage: "<host-file> <boss-path>", Action: cmdWrite},
			{Name: "mkdir", Usage: "create a directory", ArgsUsage: "<path>", Action: cmdMkdir},
			{Name: "rm", Usage: "remove a file or directory", ArgsUsage: "<path>", Action: cmdRm},
			{Name: "rmdir", Usage: "remove a directory and its contents", ArgsUsage: "<path>", Action: cmdRmdir},
			{Name: "stat", Usage: "dump filesystem geometry and directory tree", Action: cmdStat},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bossctl:", err)
		os.Exit(1)
	}
}

func cmdLs(c *cli.Context) error {
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()

	entries, errc := s.vfs.Ls()
	if errc != vfs.ErrNone {
		return errc
	}
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		fmt.Printf("%-6d %-5s %s\n", e.Inode, kind, e.Name)
	}
	return nil
}

func cmdCat(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("cat: missing path")
	}
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()

	res := s.vfs.Open(path, 0)
	if err := requireOk(res, "open"); err != nil {
		return err
	}
	fd := vfs.FD(res.Value)
	defer s.vfs.Close(fd)

	buf := make([]byte, simplefs.MaxFileSize)
	read := s.vfs.Read(fd, buf, 0)
	if err := requireOk(read, "read"); err != nil {
		return err
	}
	_, err = os.Stdout.Write(buf[:read.Value])
	return err
}

func cmdWrite(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("write: expected <host-file> <boss-path>")
	}
	hostPath := c.Args().Get(0)
	bossPath := c.Args().Get(1)

	data, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}

	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()

	open := s.vfs.Open(bossPath, vfs.OpenCreate)
	if err := requireOk(open, "open"); err != nil {
		return err
	}
	fd := vfs.FD(open.Value)
	defer s.vfs.Close(fd)

	write := s.vfs.Write(fd, data, 0)
	return requireOk(write, "write")
}

func cmdMkdir(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("mkdir: missing path")
	}
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()
	return requireOk(s.vfs.Mkdir(path), "mkdir")
}

func cmdRm(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("rm: missing path")
	}
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()
	return requireOk(s.vfs.Rm(path), "rm")
}

func cmdRmdir(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("rmdir: missing path")
	}
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()
	return requireOk(s.vfs.RmDir(path), "rmdir")
}

func cmdStat(c *cli.Context) error {
	s, err := openSession(c.String("image"))
	if err != nil {
		return err
	}
	defer s.close()
	return s.fs.DebugDump(os.Stdout)
}
