// Package factory provides a small generic registry used to instantiate
// components from configuration. Components are identified by a type string.
// Factories receive a typed configuration value and return the concrete
// implementation; Decode turns raw settings into typed structs.
//
// Example usage:
//
//	reg := factory.NewModuleRegistry[io.Reader]()
//	_ = reg.Register("file", func(conf map[string]any) (io.Reader, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return os.Open(c.Path)
//	})
//	r, err := factory.CreateModule(reg, factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "foo"}})
package factory
