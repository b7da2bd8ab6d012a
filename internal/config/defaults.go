package config

const (
	DefaultAudioFormat    = "m4a"
	DefaultOutputDir      = "./downloads"
	DefaultOutputTemplate = "%(uploader)s - %(title).80B [%(id)s].%(ext)s"
	DefaultRetries        = 2
	DefaultConcurrent     = 2
	DefaultSubtitleLang   = "en"
	DefaultMergeFormat    = "mp4"
	DefaultYTDLPBinary    = "yt-dlp"

	EnvConfigPath = "YTBATCH_CONFIG"
)
