// Package config builds configurations for Launchpad.
//
// A Factory reads a configuration document, the documents it imports, and
// any number of in-memory fragments, and merges them into a Configuration.
// The Configuration holds the merged settings and the object definitions
// found under the `objects` key, and hands out the ObjectFactory used to
// instantiate them.
//
// # Documents
//
// Documents are YAML by default; files ending in .json or .toml are parsed
// accordingly. Locations may be local paths, file:// URLs, s3://bucket/key
// or gs://bucket/object.
//
//	imports:
//	  - common.yaml
//	server:
//	  name: demo
//	objects:
//	  app.main:
//	    type: metrics.server
//	    properties:
//	      addr: ${LISTEN_ADDR}
//
// Layers are applied in this order, later layers winning key by key:
//
//  1. imports, in list order, each resolved relative to the importing document
//  2. the document itself
//  3. extra fragments, in the order given to Create
//
// # Environment Variable Substitution
//
// ${VAR_NAME} references are replaced with environment variable values
// before parsing. ${BASE_DIR}, ${USER_DIR} and ${CONFIG_DIR} expand to the
// base directory, the user directory, and the directory of the document
// being read.
//
// # Keys
//
// Keys are case-insensitive and stored lower-cased. Object identifiers may
// contain dots; they are never split into nested keys.
//
// # Caching
//
// With a cache directory set and debug mode off, merged configurations are
// stored on disk, keyed by the Create arguments, and reused while no local
// source file is newer than the entry.
//
//	config.SetCacheDir("/var/cache/launchpad")
//	cfg, err := config.Default().Create(ctx, "app.yaml", "/srv/app", "", nil)
package config
