// Package config loads and watches the eip-monitor configuration file.
//
// Load(path) reads the YAML file, applies defaults (30s scrape interval,
// 30s source timeout, 10s node cache TTL, capacity 75, port 8080), then
// layers the recognized environment variables (SCRAPE_INTERVAL, PORT,
// NODE_CAPACITY, LOG_LEVEL) on top. An invalid node_capacity is repaired
// to the default with a warning rather than rejected.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors by re-adding the watch after a rename event.
// Hot reload currently adjusts log verbosity only.
package config
