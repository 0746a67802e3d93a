// Package controller is the boundary between a plugin and the
// home-automation controller.
//
// Controller is the three-call surface a plugin needs: create a device
// (with its features), create a feature on an existing device, and push
// staged changes for a ref. Client implements it over a framed link,
// ServeConn answers it on the controller side, and Memory is a complete
// in-process controller used by tests and the hspi-tool shell.
//
//	conn, _ := transport.Dial(ctx, addr, transport.DialConfig{})
//	c := controller.NewClient(conn, controller.ClientConfig{PluginID: "demo"})
//	ref, err := c.CreateDevice(ctx, data)
package controller
