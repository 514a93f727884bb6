package processor

// injectedStyle is a style block appended to the document head once.
type injectedStyle struct {
	id  string
	css string
}

var injectedStyles = []injectedStyle{
	{id: "hfit-default-injected-css", css: defaultCSS},
	{id: "hfit-dynamic-injected-css", css: dynamicCSS},
	{id: "hfit-user-custom-style", css: userCustomCSS},
}

const defaultCSS = `
:root {
  --hfit-theme-underline-borderColor: #72ece9;
  --hfit-theme-nativeUnderline-borderColor: #72ece9;
  --hfit-theme-nativeDashed-borderColor: #72ece9;
  --hfit-theme-nativeDotted-borderColor: #72ece9;
  --hfit-theme-highlight-backgroundColor: #ffff00;
  --hfit-theme-dashed-borderColor: #59c1bd;
  --hfit-theme-blockquote-borderColor: #cc3355;
  --hfit-theme-thinDashed-borderColor: #ff374f;
  --hfit-theme-dashedBorder-borderColor: #94a3b8;
  --hfit-theme-dashedBorder-borderRadius: 0;
  --hfit-theme-solidBorder-borderColor: #94a3b8;
  --hfit-theme-solidBorder-borderRadius: 0;
  --hfit-theme-dotted-borderColor: #94a3b8;
  --hfit-theme-wavy-borderColor: #72ece9;
  --hfit-theme-dividingLine-borderColor: #94a3b8;
  --hfit-theme-grey-textColor: #2f4f4f;
  --hfit-theme-marker-backgroundColor: #fbda41;
  --hfit-theme-marker-backgroundColor-rgb: 251, 218, 65;
  --hfit-theme-marker2-backgroundColor: #ffff00;
  --hfit-theme-background-backgroundColor: #dbafaf;
  --hfit-theme-background-backgroundColor-rgb: 219, 175, 175;
  --hfit-theme-background-backgroundOpacity: 12;
  --hfit-theme-opacity-opacity: 10;
}

[hfit-state="dual"] .hfit-target-translation-pre-whitespace {
  white-space: pre-wrap !important;
}

[hfit-state="dual"] .hfit-target-wrapper[dir="rtl"] {
  text-align: right;
}

[hfit-state="translation"] .hfit-target-wrapper > br {
  display: none;
}

[hfit-state="translation"]
  .hfit-target-translation-block-wrapper {
  margin: 0 !important;
}

[hfit-state="dual"] .hfit-target-translation-block-wrapper {
  margin: 8px 0 !important;
  display: inline-block;
}

[hfit-trans-position="before"]
  .hfit-target-translation-block-wrapper {
  display: block;
}

[hfit-trans-position="before"]
  .hfit-target-translation-block-wrapper {
  margin-top: 0 !important;
}

.hfit-target-wrapper {
  word-break:break-word; 
  user-select:text;
}

[dir='rtl'] .hfit-target-wrapper:not([dir]) {
  text-align:left;
}

[hfit-state=dual] .hfit-target-translation-block-wrapper-theme-dividingLine::before {
  display:block;
}

[hfit-trans-position=before] .hfit-target-translation-block-wrapper {
  display:block!important;
}
`

const dynamicCSS = `.hfit-target-wrapper[dir='rtl'] {text-align: right;}
.hfit-target-wrapper[dir='rtl'] [data-hfit-class-bak*='block-wrapper'] {display:block;}
.hfit-target-wrapper {word-break:break-word; user-select:text;}
[hfit-state="translation"] .hfit-target-wrapper[dir='rtl'] {display:inline-block;}
[dir='rtl'] .hfit-target-wrapper:not([dir]) {text-align:left;}
[hfit-state=dual] .hfit-target-translation-block-wrapper-theme-dividingLine::before {display:block;}
[hfit-trans-position=before] .hfit-target-translation-block-wrapper {display:block!important;}`

const userCustomCSS = `:root {

.hfit-target-inner { font-family: inherit; }


.hfit-target-inner { font-family: inherit; }
}`
