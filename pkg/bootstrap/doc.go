// Package bootstrap assembles an application from configuration and hands
// control to it.
//
// A Builder collects the configuration file, directories, extra fragments,
// class map and target identifier through chained setters. Build resolves
// them into a Runnable through the class loader, the configuration factory
// and the configuration's object factory; Run executes a Runnable; Boot does
// both.
//
// # Basic Usage
//
//	err := bootstrap.New().
//	    SetConfigFile("app.yaml").
//	    SetBaseDir("/srv/app").
//	    AddClassMapEntry("app", "/srv/app/objects").
//	    SetTargetObjectID("app.main").
//	    Boot(ctx)
//
// # Process-wide State
//
// The class loader and the configuration factory debug and cache directory
// switches are shared by the whole process. Build overwrites the debug
// switch every time it runs, so concurrent builds with different settings
// must be serialized by the caller.
//
// # Errors
//
// Errors from the configuration factory, the object factory and the target
// are returned as they are. Build logs its steps at debug level and never
// logs failures.
package bootstrap
