package kernel

import (
	"fmt"
	"html"
)

// 错误与空状态窗口片段；按钮使用编排器拦截的控制标识
// Error and empty-state window fragments; buttons carry control identifiers

const missingKeyFragment = `<div class="p-8 text-red-900 bg-red-50 border border-red-200 rounded-3xl shadow-xl font-sans">
  <h2 class="text-2xl font-black mb-4 flex items-center gap-3 uppercase tracking-tight">
    <span class="text-3xl">⚠️</span> Kernel Key Missing
  </h2>
  <p class="mb-6 text-sm leading-relaxed text-red-800/80 font-medium">
    No <strong>API key</strong> is configured. The Gemini OS kernel cannot initialize without a valid uplink.
  </p>
  <button class="llm-button bg-red-600 hover:bg-red-700 w-full font-bold py-3" data-interaction-id="change_api_key">
    Select API Key
  </button>
</div>`

const noContextFragment = `<div class="p-4 text-orange-700 bg-orange-50 rounded-lg">
  <p class="font-bold">No interaction context found.</p>
</div>`

const keyErrorFragment = `<div class="p-8 text-red-900 bg-red-50 border border-red-200 rounded-3xl shadow-xl font-sans">
  <h2 class="text-2xl font-black mb-4 flex items-center gap-3 uppercase tracking-tight text-red-600">
    <span class="text-3xl">🔑</span> Uplink Refused
  </h2>
  <p class="mb-6 text-sm leading-relaxed text-red-800/80">
    The selected project was not found or the API key is invalid for this model. Please select a valid API key from a billable Google Cloud project.
  </p>
  <button class="llm-button bg-red-600 hover:bg-red-700 w-full font-bold py-3" data-interaction-id="change_api_key">
    Re-select API Key
  </button>
</div>`

const quotaFragmentFormat = `<div class="p-8 text-amber-900 bg-amber-50 border border-amber-200 rounded-3xl shadow-xl font-sans">
  <div class="flex items-center gap-3 mb-4">
    <div class="w-12 h-12 bg-amber-600 rounded-2xl flex items-center justify-center text-white text-2xl animate-pulse shadow-lg">⚡</div>
    <h2 class="text-2xl font-black uppercase tracking-tight">Quota Exhausted</h2>
  </div>
  <p class="mb-6 text-sm leading-relaxed text-amber-800/80 font-medium">
    The <strong>Free Tier</strong> of the Gemini API has reached its request limit. To continue, please switch to an API key from a <strong>Paid Google Cloud Project</strong>.%s
  </p>
  <div class="flex flex-col gap-3">
    <button class="llm-button bg-amber-600 hover:bg-amber-700 w-full font-bold py-3 transition-all active:scale-95" data-interaction-id="change_api_key">
      Switch to Paid API Key
    </button>
    <div class="flex justify-between items-center text-[10px] text-amber-600/60 font-bold uppercase tracking-widest px-1">
      <span>Model: %s</span>
      <a href="https://ai.google.dev/gemini-api/docs/billing" target="_blank" class="underline hover:text-amber-800">Billing Docs</a>
    </div>
  </div>
</div>`

const panicFragmentFormat = `<div class="p-6 text-red-800 bg-red-50 border border-red-200 rounded-xl font-mono text-sm shadow-inner">
  <p class="font-bold text-lg mb-2 uppercase tracking-widest text-red-600">Kernel Panic</p>
  <div class="bg-red-100 p-4 rounded-lg border border-red-300 overflow-x-auto mb-6 text-xs leading-relaxed">
    %s
  </div>
  <div class="flex gap-3">
    <button class="llm-button bg-red-600 hover:bg-red-700 flex-grow font-bold" data-interaction-id="app_close_button">Restart Application</button>
    <button class="llm-button bg-slate-800 hover:bg-slate-900 font-bold" data-interaction-id="change_api_key">Switch Key</button>
  </div>
</div>`

func quotaFragment(model, retryDelay string) string {
	hint := ""
	if retryDelay != "" {
		hint = fmt.Sprintf(`<br/><br/><strong class="text-amber-900">You can try again on the current key in approximately %s.</strong>`,
			html.EscapeString(retryDelay))
	}
	return fmt.Sprintf(quotaFragmentFormat, hint, html.EscapeString(model))
}

func panicFragment(message string) string {
	if message == "" {
		message = "Unknown internal kernel error."
	}
	return fmt.Sprintf(panicFragmentFormat, html.EscapeString(message))
}

// Fragment 返回某种结果对应的窗口片段；正常结果返回空串
// Fragment renders the window fragment for an outcome; KindOK yields ""
func Fragment(kind Kind, model string, err error) string {
	switch kind {
	case KindMissingKey:
		return missingKeyFragment
	case KindNoContext:
		return noContextFragment
	case KindKeyError:
		return keyErrorFragment
	case KindQuotaError:
		return quotaFragment(model, RetryDelay(err))
	case KindKernelError:
		return panicFragment(errorMessage(err))
	}
	return ""
}
