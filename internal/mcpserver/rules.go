package mcpserver

// CleanupRules describes what strip_note and summarize_note do to a note,
// so that LLM consumers can predict the result before calling them.
const CleanupRules = `# notetidy cleanup rules

Operations only apply to notes that sit directly inside the configured target
folder. Notes in sub-folders or elsewhere in the vault are refused.

## strip_note

Every line matching one of these patterns is deleted:

1. A capture-tool link anywhere in the line: ` + "`cubox://...`" + `
2. A highlight link anywhere in the line: ` + "`https://cubox.pro/my/highlight?id=...`" + `
3. A level-1 heading at column 0: ` + "`# Title`" + ` (` + "`## Title`" + ` is kept)

Afterwards, if the last remaining line contains any ` + "`http://`" + ` or ` + "`https://`" + `
link, that line is deleted as well. Pass ` + "`dry_run: true`" + ` to get a line diff
without writing the note.

## summarize_note

1. A summary section titled ` + "`# 总结`" + ` is looked up (exact line match).
2. A placeholder line is written directly below it; the section is appended at
   the end of the note when it does not exist yet. An existing ` + "`- `" + ` entry
   below the title is replaced, so summarizing twice keeps one section.
3. The note content is sent to the summary endpoint.
4. The placeholder line becomes ` + "`- <summary>`" + `, folded onto one line.

If the request fails, the placeholder stays in the note. If the note was edited
above the placeholder while the request ran, nothing is written.

## Created date

New notes in the target folder get ` + "`created: YYYY-MM-DD`" + ` added to their front
matter (a front matter block is created when missing) and are stripped shortly
after, one second by default.
`
