package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docportal/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write docportal.yaml into"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(filepath.Join(i.Output, "docportal.yaml"), i.Force)
	}
	return RunInit(root.Config, i.Force)
}

// RunInit writes the example configuration to configPath.
func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Println("Initialized successfully")
	return nil
}
