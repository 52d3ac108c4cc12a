// Package config handles configuration loading for cheatsheet-server.
//
// Configuration is loaded from YAML files with ${VAR_NAME} environment
// variable expansion, defaults for optional fields, and a validation pass.
//
// Example:
//
//	server:
//	  http_addr: "0.0.0.0:8000"
//	  static_dir: "./public"
//
//	database:
//	  path: "/var/lib/cheatsheet/cheatsheet.db"
//
//	auth:
//	  jwt_secret: "${CHEATSHEET_JWT_SECRET}"
//	  bcrypt_cost: 10
//
//	channels:
//	  publish_only:
//	    - "saveNote"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// The publish-only channel set defaults to ["saveNote"] when omitted.
package config
