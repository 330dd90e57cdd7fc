package browser

import "fmt"

// AttrTarget marks the live element chosen as the scroll target.
const AttrTarget = "data-ccs-target"

const markScript = `((index) => {
  document.querySelectorAll('[%[1]s]').forEach((el) => el.removeAttribute('%[1]s'));
  const el = index < 0
    ? (document.scrollingElement || document.documentElement)
    : document.querySelectorAll('*')[index];
  if (!el) return false;
  el.setAttribute('%[1]s', '1');
  return true;
})(%[2]d)`

const scrollTopScript = `(() => {
  const el = document.querySelector('[%[1]s]');
  if (!el) return false;
  el.scrollTop = 0;
  return true;
})()`

const scrollHeightScript = `(() => {
  const el = document.querySelector('[%[1]s]');
  return el ? el.scrollHeight : -1;
})()`

func markTargetJS(index int) string {
	return fmt.Sprintf(markScript, AttrTarget, index)
}

func scrollTopJS() string {
	return fmt.Sprintf(scrollTopScript, AttrTarget)
}

func scrollHeightJS() string {
	return fmt.Sprintf(scrollHeightScript, AttrTarget)
}
