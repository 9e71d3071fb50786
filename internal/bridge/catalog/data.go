package catalog

import "encoding/json"

// All returns the full catalog of bridgeable tools. Pure configuration:
// adding a backend's tools means adding entries here.
func All() []Entry {
	return entries
}

func schema(s string) json.RawMessage {
	return json.RawMessage(s)
}

var entries = []Entry{
	// filesystem backend
	{
		Name:        "fs_read_file",
		Description: "Read the complete contents of a file from the local filesystem",
		Backend:     "filesystem",
		RemoteName:  "read_file",
		InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string","description":"Absolute path to the file"}},"required":["path"]}`),
		Categories:  []Category{CategoryFilesystem},
		Priority:    1,
		Tags:        []string{"file", "read", "filesystem"},
	},
	{
		Name:        "fs_write_file",
		Description: "Create a new file or overwrite an existing one",
		Backend:     "filesystem",
		RemoteName:  "write_file",
		InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`),
		Categories:  []Category{CategoryFilesystem},
		Priority:    1,
		Tags:        []string{"file", "write", "filesystem"},
	},
	{
		Name:        "fs_list_directory",
		Description: "List the entries of a directory",
		Backend:     "filesystem",
		RemoteName:  "list_directory",
		InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		Categories:  []Category{CategoryFilesystem},
		Priority:    2,
		Tags:        []string{"directory", "list", "filesystem"},
	},
	{
		Name:        "fs_search_files",
		Description: "Recursively search for files matching a pattern",
		Backend:     "filesystem",
		RemoteName:  "search_files",
		InputSchema: schema(`{"type":"object","properties":{"path":{"type":"string"},"pattern":{"type":"string"}},"required":["path","pattern"]}`),
		Categories:  []Category{CategoryFilesystem, CategorySearch},
		Priority:    2,
		Tags:        []string{"search", "glob", "filesystem"},
	},
	{
		Name:        "fs_move_file",
		Description: "Move or rename a file or directory",
		Backend:     "filesystem",
		RemoteName:  "move_file",
		InputSchema: schema(`{"type":"object","properties":{"source":{"type":"string"},"destination":{"type":"string"}},"required":["source","destination"]}`),
		Categories:  []Category{CategoryFilesystem},
		Priority:    3,
		Tags:        []string{"move", "rename", "filesystem"},
	},

	// github backend
	{
		Name:        "github_search_repositories",
		Description: "Search GitHub repositories by query",
		Backend:     "github",
		RemoteName:  "search_repositories",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		Categories:  []Category{CategoryDev, CategorySearch},
		Priority:    2,
		Tags:        []string{"github", "repository", "search", "code"},
	},
	{
		Name:        "github_get_file_contents",
		Description: "Read a file from a GitHub repository",
		Backend:     "github",
		RemoteName:  "get_file_contents",
		InputSchema: schema(`{"type":"object","properties":{"owner":{"type":"string"},"repo":{"type":"string"},"path":{"type":"string"}},"required":["owner","repo","path"]}`),
		Categories:  []Category{CategoryDev},
		Priority:    2,
		Tags:        []string{"github", "file", "read", "code"},
	},
	{
		Name:        "github_create_issue",
		Description: "Open a new issue in a GitHub repository",
		Backend:     "github",
		RemoteName:  "create_issue",
		InputSchema: schema(`{"type":"object","properties":{"owner":{"type":"string"},"repo":{"type":"string"},"title":{"type":"string"},"body":{"type":"string"}},"required":["owner","repo","title"]}`),
		Categories:  []Category{CategoryDev},
		Priority:    3,
		Tags:        []string{"github", "issue", "tracker"},
	},
	{
		Name:        "github_create_pull_request",
		Description: "Open a pull request in a GitHub repository",
		Backend:     "github",
		RemoteName:  "create_pull_request",
		InputSchema: schema(`{"type":"object","properties":{"owner":{"type":"string"},"repo":{"type":"string"},"title":{"type":"string"},"head":{"type":"string"},"base":{"type":"string"}},"required":["owner","repo","title","head","base"]}`),
		Categories:  []Category{CategoryDev},
		Priority:    3,
		Tags:        []string{"github", "pull request", "review"},
	},

	// fetch backend
	{
		Name:        "web_fetch",
		Description: "Fetch a URL and return its contents as markdown",
		Backend:     "fetch",
		RemoteName:  "fetch",
		InputSchema: schema(`{"type":"object","properties":{"url":{"type":"string","format":"uri"},"max_length":{"type":"number"}},"required":["url"]}`),
		Categories:  []Category{CategoryWeb},
		Priority:    1,
		Tags:        []string{"http", "fetch", "url", "web"},
	},

	// browser backend
	{
		Name:        "browser_navigate",
		Description: "Navigate the controlled browser to a URL",
		Backend:     "browser",
		RemoteName:  "puppeteer_navigate",
		InputSchema: schema(`{"type":"object","properties":{"url":{"type":"string","format":"uri"}},"required":["url"]}`),
		Categories:  []Category{CategoryBrowser, CategoryWeb},
		Priority:    2,
		Tags:        []string{"browser", "navigate", "web"},
	},
	{
		Name:        "browser_screenshot",
		Description: "Capture a screenshot of the current browser page",
		Backend:     "browser",
		RemoteName:  "puppeteer_screenshot",
		InputSchema: schema(`{"type":"object","properties":{"name":{"type":"string"},"selector":{"type":"string"}},"required":["name"]}`),
		Categories:  []Category{CategoryBrowser},
		Priority:    3,
		Tags:        []string{"browser", "screenshot", "capture"},
	},
	{
		Name:        "browser_click",
		Description: "Click an element on the current browser page",
		Backend:     "browser",
		RemoteName:  "puppeteer_click",
		InputSchema: schema(`{"type":"object","properties":{"selector":{"type":"string"}},"required":["selector"]}`),
		Categories:  []Category{CategoryBrowser},
		Priority:    3,
		Tags:        []string{"browser", "click", "interaction"},
	},
	{
		Name:        "browser_evaluate",
		Description: "Evaluate JavaScript in the browser page context",
		Backend:     "browser",
		RemoteName:  "puppeteer_evaluate",
		InputSchema: schema(`{"type":"object","properties":{"script":{"type":"string"}},"required":["script"]}`),
		Categories:  []Category{CategoryBrowser, CategoryDev},
		Priority:    4,
		Tags:        []string{"browser", "javascript", "evaluate"},
	},

	// maps backend
	{
		Name:        "maps_geocode",
		Description: "Convert an address into geographic coordinates",
		Backend:     "maps",
		RemoteName:  "maps_geocode",
		InputSchema: schema(`{"type":"object","properties":{"address":{"type":"string"}},"required":["address"]}`),
		Categories:  []Category{CategoryMaps},
		Priority:    2,
		Tags:        []string{"maps", "geocode", "address", "location"},
	},
	{
		Name:        "maps_search_places",
		Description: "Search for places near a location",
		Backend:     "maps",
		RemoteName:  "maps_search_places",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"},"location":{"type":"object"},"radius":{"type":"number"}},"required":["query"]}`),
		Categories:  []Category{CategoryMaps, CategorySearch},
		Priority:    3,
		Tags:        []string{"maps", "places", "search", "location"},
	},
	{
		Name:        "maps_directions",
		Description: "Get directions between two points",
		Backend:     "maps",
		RemoteName:  "maps_directions",
		InputSchema: schema(`{"type":"object","properties":{"origin":{"type":"string"},"destination":{"type":"string"},"mode":{"type":"string","enum":["driving","walking","bicycling","transit"]}},"required":["origin","destination"]}`),
		Categories:  []Category{CategoryMaps},
		Priority:    3,
		Tags:        []string{"maps", "directions", "route", "navigation"},
	},

	// slack backend
	{
		Name:        "slack_post_message",
		Description: "Post a message to a Slack channel",
		Backend:     "slack",
		RemoteName:  "slack_post_message",
		InputSchema: schema(`{"type":"object","properties":{"channel_id":{"type":"string"},"text":{"type":"string"}},"required":["channel_id","text"]}`),
		Categories:  []Category{CategoryMessaging},
		Priority:    2,
		Tags:        []string{"slack", "message", "chat", "notify"},
	},
	{
		Name:        "slack_list_channels",
		Description: "List the channels in the Slack workspace",
		Backend:     "slack",
		RemoteName:  "slack_list_channels",
		InputSchema: schema(`{"type":"object","properties":{"limit":{"type":"number"}}}`),
		Categories:  []Category{CategoryMessaging},
		Priority:    4,
		Tags:        []string{"slack", "channel", "list"},
	},

	// sqlite backend
	{
		Name:        "db_query",
		Description: "Run a read-only SQL query against the local database",
		Backend:     "sqlite",
		RemoteName:  "read_query",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		Categories:  []Category{CategoryData},
		Priority:    2,
		Tags:        []string{"sql", "query", "database", "sqlite"},
	},
	{
		Name:        "db_execute",
		Description: "Execute a SQL statement that modifies the local database",
		Backend:     "sqlite",
		RemoteName:  "write_query",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		Categories:  []Category{CategoryData},
		Priority:    3,
		Tags:        []string{"sql", "execute", "database", "sqlite"},
	},
	{
		Name:        "db_list_tables",
		Description: "List the tables in the local database",
		Backend:     "sqlite",
		RemoteName:  "list_tables",
		InputSchema: schema(`{"type":"object","properties":{}}`),
		Categories:  []Category{CategoryData},
		Priority:    4,
		Tags:        []string{"sql", "schema", "tables", "sqlite"},
	},

	// memory backend
	{
		Name:        "memory_create_entities",
		Description: "Store new entities in the knowledge graph",
		Backend:     "memory",
		RemoteName:  "create_entities",
		InputSchema: schema(`{"type":"object","properties":{"entities":{"type":"array"}},"required":["entities"]}`),
		Categories:  []Category{CategoryMemory},
		Priority:    3,
		Tags:        []string{"memory", "knowledge", "store"},
	},
	{
		Name:        "memory_search_nodes",
		Description: "Search the knowledge graph for matching nodes",
		Backend:     "memory",
		RemoteName:  "search_nodes",
		InputSchema: schema(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`),
		Categories:  []Category{CategoryMemory, CategorySearch},
		Priority:    3,
		Tags:        []string{"memory", "knowledge", "search"},
	},
}
