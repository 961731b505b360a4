// Package confloader loads vibebridge-server configuration with koanf.
//
// Sources, later overriding earlier:
//
//  1. Default values already present in the target struct
//  2. A YAML configuration file
//  3. VIBEBRIDGE_* environment variables
//
// Environment names map onto koanf keys by matching the target struct's
// koanf tags, so VIBEBRIDGE_SECURITY_BOOTSTRAP_TOKEN sets
// security.bootstrap_token rather than security.bootstrap.token.
//
// Watcher reports changes to watched files so the server can apply
// log.level without a restart.
package confloader
