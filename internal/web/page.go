package web

import (
	"strings"

	"genos/internal/orchestrator"
)

func renderPage() string {
	return strings.NewReplacer(
		"{{TITLE}}", orchestrator.TitleDesktop,
	).Replace(shellHTML)
}

// shellHTML 外壳页面；窗口内容由服务端推送，点击以元素路径回传
// shellHTML is the shell page. Window content is pushed by the server and
// clicks are sent back as element paths.
const shellHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{TITLE}}</title>
<style>
  * { box-sizing: border-box; }
  body { margin: 0; font-family: system-ui, sans-serif; background: #1e3a5f; color: #111; height: 100vh; overflow: hidden; }
  #boot, #desktop, #window { position: absolute; inset: 0; }
  #boot { display: flex; flex-direction: column; align-items: center; justify-content: center; color: #fff; gap: 12px; }
  #desktop { display: grid; grid-template-columns: repeat(auto-fill, 96px); gap: 16px; padding: 24px; align-content: start; }
  .icon { width: 96px; height: 96px; border-radius: 12px; display: flex; flex-direction: column; align-items: center; justify-content: center; cursor: pointer; font-size: 13px; }
  .icon span { font-size: 32px; }
  #window { background: #fff; display: flex; flex-direction: column; margin: 24px; border-radius: 10px; overflow: hidden; }
  #titlebar { display: flex; justify-content: space-between; align-items: center; padding: 8px 12px; background: #e5e7eb; }
  #titlebar button { margin-left: 6px; }
  #content, #panel { flex: 1; overflow: auto; padding: 12px; }
  #loading { position: fixed; top: 8px; right: 12px; background: #111827; color: #fff; padding: 4px 10px; border-radius: 6px; font-size: 12px; }
  #pip { position: fixed; right: 16px; bottom: 16px; width: 320px; height: 240px; background: #fff; border-radius: 10px; box-shadow: 0 4px 24px rgba(0,0,0,.4); display: flex; flex-direction: column; overflow: hidden; }
  #pipbar { display: flex; justify-content: space-between; padding: 4px 8px; background: #e1f5fe; font-size: 12px; }
  #pipcontent { flex: 1; overflow: auto; padding: 8px; }
  #toast { position: fixed; left: 50%; bottom: 24px; transform: translateX(-50%); background: #b91c1c; color: #fff; padding: 10px 14px; border-radius: 8px; display: flex; gap: 10px; align-items: center; }
  #keydialog { position: fixed; inset: 0; background: rgba(0,0,0,.5); display: flex; align-items: center; justify-content: center; }
  #keydialog form { background: #fff; padding: 20px; border-radius: 10px; display: flex; gap: 8px; }
  .hidden { display: none !important; }
  #taskbar { position: fixed; left: 0; right: 0; bottom: 0; height: 36px; background: rgba(0,0,0,.4); display: flex; align-items: center; padding: 0 12px; color: #fff; gap: 12px; }
</style>
</head>
<body>
<div id="boot">
  <h1>{{TITLE}}</h1>
  <label><input type="checkbox" id="boot-cache"> Cache</label>
  <label>Size <input type="range" id="boot-size" min="5" max="20"> <span id="boot-size-label"></span> GB</label>
  <button id="boot-go">Boot</button>
</div>
<div id="desktop" class="hidden"></div>
<div id="window" class="hidden">
  <div id="titlebar"><strong id="title"></strong><div><button id="btn-panel">⚙</button><button id="btn-close">✕</button></div></div>
  <div id="content"></div>
  <div id="panel" class="hidden">
    <p><label>Interaction buffer length <input type="number" id="p-history" min="0" max="10"></label></p>
    <p><label><input type="checkbox" id="p-stateful"> Persistence layer</label></p>
    <p><label><input type="checkbox" id="p-cache"> Cache</label> <input type="number" id="p-size" min="5" max="20"> GB</p>
    <p><button id="p-apply">Apply</button> <button id="p-key">Manage API Key</button></p>
  </div>
</div>
<div id="pip" class="hidden">
  <div id="pipbar"><span id="piptitle"></span><span><button id="pip-expand">Expand</button></span></div>
  <div id="pipcontent"></div>
</div>
<div id="loading" class="hidden">Syncing Kernel State</div>
<div id="toast" class="hidden"><span id="toast-msg"></span><button id="toast-key" class="hidden">Switch API Key</button><button id="toast-close">✕</button></div>
<div id="keydialog" class="hidden"><form id="keyform"><input type="password" id="keyinput" placeholder="API key" autocomplete="off"><button>Use key</button><button type="button" id="keycancel">Cancel</button></form></div>
<div id="taskbar"><button id="btn-home">⌂</button><span id="status"></span></div>
<script>
(function () {
  var $ = function (id) { return document.getElementById(id); };
  var ws, state = {}, apps = [];
  var containers = { primary: $('content'), pip: $('pipcontent') };

  function send(type, payload) {
    if (ws && ws.readyState === 1) ws.send(JSON.stringify({ type: type, payload: payload }));
  }
  function show(el, on) { el.classList.toggle('hidden', !on); }

  function pathOf(root, el) {
    var path = [];
    while (el && el !== root) {
      var i = 0, s = el.previousElementSibling;
      while (s) { i++; s = s.previousElementSibling; }
      path.unshift(i);
      el = el.parentElement;
    }
    return el === root ? path : null;
  }

  function liveValues(root) {
    var values = {};
    root.querySelectorAll('input[id], textarea[id], select[id]').forEach(function (el) {
      values[el.id] = el.type === 'checkbox' ? String(el.checked) : el.value;
    });
    return values;
  }

  Object.keys(containers).forEach(function (target) {
    var root = containers[target];
    root.addEventListener('click', function (e) {
      var el = e.target.closest('[data-interaction-id]');
      if (!el || !root.contains(el)) return;
      e.preventDefault();
      var path = pathOf(root, e.target.nodeType === 1 ? e.target : e.target.parentElement);
      if (!path) return;
      send('click', { target: target, path: path, values: liveValues(root), dom: root.innerHTML });
    });
  });

  function activate(target, scripts) {
    var root = containers[target];
    var nodes = root.querySelectorAll('script');
    scripts.forEach(function (s) {
      var fresh = document.createElement('script');
      Object.keys(s.attrs || {}).forEach(function (k) { fresh.setAttribute(k, s.attrs[k]); });
      fresh.text = s.body;
      var old = nodes[s.index];
      if (old && old.parentNode) old.parentNode.replaceChild(fresh, old);
      else root.appendChild(fresh);
    });
  }

  function renderDesktop() {
    var d = $('desktop');
    d.innerHTML = '';
    apps.forEach(function (a) {
      var div = document.createElement('div');
      div.className = 'icon';
      div.style.background = a.color;
      div.innerHTML = '<span></span><div></div>';
      div.firstChild.textContent = a.icon;
      div.lastChild.textContent = a.name;
      div.addEventListener('click', function () { send('open_app', { app_id: a.id }); });
      d.appendChild(div);
    });
  }

  function applyState(s) {
    state = s;
    document.title = s.title;
    show($('boot'), !s.booted);
    show($('desktop'), s.booted && s.view === 'desktop');
    show($('window'), s.booted && s.view !== 'desktop');
    show($('content'), s.view === 'app');
    show($('panel'), s.view === 'panel');
    $('title').textContent = s.title;
    show($('pip'), !!s.pip_app);
    $('piptitle').textContent = s.pip_title || '';
    show($('loading'), s.loading);
    show($('toast'), !!s.error);
    $('toast-msg').textContent = s.error || '';
    show($('toast-key'), !!s.error_key_action);
    $('boot-cache').checked = s.cache.enabled;
    $('boot-size').value = s.cache.sizeGB;
    $('boot-size-label').textContent = s.cache.sizeGB;
    if (document.activeElement === null || !$('panel').contains(document.activeElement)) {
      $('p-history').value = s.max_history;
      $('p-stateful').checked = s.statefulness;
      $('p-cache').checked = s.cache.enabled;
      $('p-size').value = s.cache.sizeGB;
    }
    $('status').textContent = (s.has_key ? 'key ✓' : 'no key') + (s.last_prompt_tokens ? '  ·  prompt ~' + s.last_prompt_tokens + ' tokens' : '');
  }

  function cacheFromBoot() {
    return { enabled: $('boot-cache').checked, sizeGB: parseInt($('boot-size').value, 10) };
  }
  $('boot-size').addEventListener('input', function () { $('boot-size-label').textContent = this.value; send('set_cache', cacheFromBoot()); });
  $('boot-cache').addEventListener('change', function () { send('set_cache', cacheFromBoot()); });
  $('boot-go').addEventListener('click', function () { send('boot'); });
  $('btn-panel').addEventListener('click', function () { send('toggle_panel'); });
  function control(id) {
    send('click', { target: 'primary', path: [0], values: {}, dom: '<button data-interaction-id="' + id + '" data-interaction-type="system"></button>' });
  }
  function leaveWindow() {
    if (state.view === 'panel') send('toggle_panel');
    else if (state.active_app) control('app_close_button');
  }
  $('btn-home').addEventListener('click', leaveWindow);
  $('btn-close').addEventListener('click', leaveWindow);
  $('pip-expand').addEventListener('click', function () { if (state.pip_app) send('open_app', { app_id: state.pip_app }); });
  $('p-apply').addEventListener('click', function () {
    send('apply_params', {
      max_history: parseInt($('p-history').value, 10),
      statefulness: $('p-stateful').checked,
      cache: { enabled: $('p-cache').checked, sizeGB: parseInt($('p-size').value, 10) }
    });
  });
  function changeKey() { control('change_api_key'); }
  $('p-key').addEventListener('click', changeKey);
  $('toast-key').addEventListener('click', changeKey);
  $('toast-close').addEventListener('click', function () { send('dismiss_error'); });
  $('keyform').addEventListener('submit', function (e) {
    e.preventDefault();
    send('key_submit', { key: $('keyinput').value });
    $('keyinput').value = '';
    show($('keydialog'), false);
  });
  $('keycancel').addEventListener('click', function () { send('key_submit', { key: '' }); show($('keydialog'), false); });

  function connect() {
    ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data), p = msg.payload;
      switch (msg.type) {
        case 'state': applyState(p); break;
        case 'render': containers[p.target].innerHTML = p.content; break;
        case 'activate': activate(p.target, p.scripts); break;
        case 'key_request': show($('keydialog'), true); $('keyinput').focus(); break;
        case 'error': console.warn('genos:', p.message); break;
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }

  fetch('/api/apps').then(function (r) { return r.json(); }).then(function (list) { apps = list; renderDesktop(); });
  connect();
})();
</script>
</body>
</html>
`
