package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.HistoryDB == "" {
		return errors.New("paths.history_db must be set")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render.width and render.height must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Width%2 != 0 || c.Render.Height%2 != 0 {
		// The encoder's pixel formats need even dimensions.
		return fmt.Errorf("render.width and render.height must be even, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %g", c.Render.FPS)
	}
	return nil
}
