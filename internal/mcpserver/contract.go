package mcpserver

// NoteFormatContract describes how Daybook stores a day and what markup
// LLM consumers should send when writing one.
const NoteFormatContract = `# Daybook Note Format

Daybook keeps at most one note per calendar date. Each note is a JSON file
named ` + "`" + `<YYYY-MM-DD>.json` + "`" + ` in the notes folder.

## File layout

` + "```" + `json
{
  "date": "2026-10-19",
  "html_content": "<html><body><p>Dear diary</p></body></html>",
  "images": ["photo.png"]
}
` + "```" + `

## Rules

1. **Dates** are ISO-8601 (` + "`" + `YYYY-MM-DD` + "`" + `). Tools accept other common
   spellings and normalise them.
2. **Markup** is simple rich-text HTML: one ` + "`" + `<p>` + "`" + ` per paragraph, inline
   ` + "`" + `<b>` + "`" + `, ` + "`" + `<i>` + "`" + `, ` + "`" + `<u>` + "`" + `, ` + "`" + `<s>` + "`" + ` or a ` + "`" + `<span style>` + "`" + ` with
   font-weight, font-style, text-decoration and font-size (in pt).
3. **Images** are ` + "`" + `<img src="...">` + "`" + ` elements whose source is the stored
   path returned by ` + "`" + `upload_image` + "`" + `. The ` + "`" + `images` + "`" + ` list is derived from
   the markup; you never write it yourself.
4. **Empty content deletes the day.** Writing markup with no text and no
   images removes the note and clears the calendar mark.

## Images

- Upload via the ` + "`" + `upload_image` + "`" + ` tool (http(s) URL or base64 data URI).
  It returns an ` + "`" + `htmlImage` + "`" + ` field ready to paste into the markup.
- Supported formats: png, jpg, jpeg, gif, bmp, webp.
- An upload with an existing name replaces the stored file.
`
