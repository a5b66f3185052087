package engine

// SetSurface sets where resolved views are displayed. A nil surface
// detaches the current view.
func (e *Engine) SetSurface(s Surface) {
	e.surface.Set(s)
}

// mount attaches the resolved view when it belongs to the selection and
// returns the matching detach as the effect cleanup.
func (e *Engine) mount() func() {
	selected := e.selection.Get()
	res := e.resolution.Get()
	surface := e.surface.Get()

	if selected == "" || surface == nil || res == nil {
		return nil
	}
	if res.WorkspaceID != selected || res.Err != nil || res.Handle == nil {
		return nil
	}

	view := res.Handle.View
	if err := surface.Attach(view); err != nil {
		e.logger.Error().Err(err).Str("workspace", selected).Msg("failed to attach view")
		return nil
	}
	e.logger.Debug().Str("workspace", selected).Msg("attached view")

	return func() {
		if err := surface.Detach(view); err != nil {
			e.logger.Error().Err(err).Str("workspace", selected).Msg("failed to detach view")
		}
	}
}
