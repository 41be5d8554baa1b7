// Package staging owns the scratch directories in which jobs produce their
// intermediate artifacts. Each job gets <staging_dir>/<job-id>; nothing in it
// is shared between jobs. Directories are removed when their job finishes,
// and a periodic sweep removes those a crashed worker left behind.
package staging
