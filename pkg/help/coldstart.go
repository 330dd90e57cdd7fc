package help

const ColdstartYAML = `# context-saver Quick Start

sites:
  - "gemini.google.com"
  - "chatgpt.com"
  - "chat.openai.com"

commands:
  scrape: |
    context-saver scrape --url "https://gemini.google.com/app/<id>" --user-data-dir ~/.ccs-profile

  scrape_running_browser: |
    # chrome --remote-debugging-port=9222, then:
    context-saver scrape --remote "ws://127.0.0.1:9222/devtools/browser/<id>" --copy

  save_and_summarize: |
    context-saver scrape --url "https://chatgpt.com/c/<id>" --out chat.txt --summary --format json

  snapshot_then_extract: |
    context-saver snapshot --url "https://chatgpt.com/c/<id>" --out chat.html
    context-saver extract chat.html --rules my-rules.yaml

  serve: |
    context-saver serve --url "https://gemini.google.com/app/<id>" --addr 127.0.0.1:8765 --out-dir runs
    # open http://127.0.0.1:8765/ and press Start

scroll_loop:
  - "Scrolls the chat container to the top, waits --settle (1.5s), measures scrollHeight"
  - "Stops after --no-growth (2) iterations without growth"
  - "Ctrl-C / STOP_SCRAPE stops at the next iteration; the current wait still finishes"
  - "--max-iterations / --max-duration fail the run when hit (0 = unbounded)"

transcript_format: |
  [START OF PREVIOUS CONTEXT]
  (Auto-scrolled to beginning)

  ### USER:
  ...

  ### MODEL:
  ...

  [END OF CONTEXT]

speaker_rules:
  kinds:
    author-attr: "attribute on a descendant decides the role outright"
    selector: "any descendant matching the CSS selector"
    text-line: "a visible line equal to the text"
    class-contains: "block class attribute contains the text"
  precedence: "author attribute, then user signals, then model signals, else ---"

websocket:
  commands: '{"action":"START_SCRAPE"} | {"action":"STOP_SCRAPE"}'
  events: "STATUS_UPDATE (text), COMPLETE (payload), ERROR (text); all carry run_id"

env:
  - "CCS_URL, CCS_REMOTE, CCS_HEADLESS, CCS_USER_DATA_DIR, CCS_SETTLE, CCS_NO_GROWTH"
  - "CCS_MAX_ITERATIONS, CCS_MAX_DURATION, CCS_RULES, CCS_CONFIG, CCS_ADDR"

error_behavior:
  - "Unsupported site or bad flags: exit 1"
  - "Browser failures, missing scroll container, iteration cap: exit 2"
  - "Stopped before completion: exit 1, no transcript"
  - "Copy failed: transcript still written, exit 1"
`
